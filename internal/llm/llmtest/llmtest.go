// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"uibridge/internal/llm"
)

// Provider replays Text or Content and then ends with StreamErr. OpenErr
// fails the call before a stream is returned.
type Provider struct {
	Text      []string
	Content   []llm.ContentEvent
	StreamErr error
	OpenErr   error

	mu       sync.Mutex
	requests []*llm.Request
	closed   int
}

func (p *Provider) StreamText(ctx context.Context, req *llm.Request) (llm.Stream[string], error) {
	if err := p.record(req); err != nil {
		return nil, err
	}
	return &stream[string]{ctx: ctx, items: p.Text, err: p.StreamErr, onClose: p.markClosed}, nil
}

func (p *Provider) StreamContent(ctx context.Context, req *llm.Request) (llm.Stream[llm.ContentEvent], error) {
	if err := p.record(req); err != nil {
		return nil, err
	}
	return &stream[llm.ContentEvent]{ctx: ctx, items: p.Content, err: p.StreamErr, onClose: p.markClosed}, nil
}

// Requests returns every request the provider received.
func (p *Provider) Requests() []*llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*llm.Request(nil), p.requests...)
}

// Closed reports how many streams were closed.
func (p *Provider) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Provider) record(req *llm.Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	return p.OpenErr
}

func (p *Provider) markClosed() {
	p.mu.Lock()
	p.closed++
	p.mu.Unlock()
}

type stream[T any] struct {
	ctx     context.Context
	items   []T
	i       int
	cur     T
	err     error
	done    bool
	onClose func()
}

func (s *stream[T]) Next() bool {
	if s.done {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		s.done = true
		return false
	}
	if s.i >= len(s.items) {
		s.done = true
		return false
	}
	s.cur = s.items[s.i]
	s.i++
	return true
}

func (s *stream[T]) Current() T { return s.cur }

func (s *stream[T]) Err() error {
	if !s.done {
		return nil
	}
	return s.err
}

func (s *stream[T]) Close() error {
	if s.onClose != nil {
		s.onClose()
		s.onClose = nil
	}
	return nil
}
