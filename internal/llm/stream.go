package llm

// source is the iterator shape shared by the SDK ssestream types.
type source[E any] interface {
	Next() bool
	Current() E
	Err() error
	Close() error
}

// convertFunc maps one SDK event to zero or one stream values. Returning
// ok=false skips the event; a non-nil error ends the stream.
type convertFunc[E, T any] func(E) (v T, ok bool, err error)

type mappedStream[E, T any] struct {
	src     source[E]
	convert convertFunc[E, T]
	cur     T
	err     error
}

func newMappedStream[E, T any](src source[E], convert convertFunc[E, T]) *mappedStream[E, T] {
	return &mappedStream[E, T]{src: src, convert: convert}
}

func (s *mappedStream[E, T]) Next() bool {
	if s.err != nil {
		return false
	}
	for s.src.Next() {
		v, ok, err := s.convert(s.src.Current())
		if err != nil {
			s.err = err
			return false
		}
		if ok {
			s.cur = v
			return true
		}
	}
	return false
}

func (s *mappedStream[E, T]) Current() T { return s.cur }

func (s *mappedStream[E, T]) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.src.Err()
}

func (s *mappedStream[E, T]) Close() error { return s.src.Close() }
