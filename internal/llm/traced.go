package llm

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"uibridge/internal/trace"
)

type tracedProvider struct {
	next Provider
	name string
}

// Traced wraps p so every model stream runs inside a span that ends when the
// stream is closed. name identifies the provider in span attributes.
func Traced(p Provider, name string) Provider {
	return &tracedProvider{next: p, name: name}
}

func (t *tracedProvider) StreamText(ctx context.Context, req *Request) (Stream[string], error) {
	ctx, span := t.start(ctx, "llm.stream_text", req)
	s, err := t.next.StreamText(ctx, req)
	if err != nil {
		endSpan(span, 0, err)
		return nil, err
	}
	return &tracedStream[string]{Stream: s, span: span}, nil
}

func (t *tracedProvider) StreamContent(ctx context.Context, req *Request) (Stream[ContentEvent], error) {
	ctx, span := t.start(ctx, "llm.stream_content", req)
	s, err := t.next.StreamContent(ctx, req)
	if err != nil {
		endSpan(span, 0, err)
		return nil, err
	}
	return &tracedStream[ContentEvent]{Stream: s, span: span}, nil
}

func (t *tracedProvider) start(ctx context.Context, op string, req *Request) (context.Context, oteltrace.Span) {
	ctx, span := trace.Tracer().Start(ctx, op,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String("gen_ai.system", t.name),
			attribute.Int("gen_ai.request.messages", len(req.Messages)),
			attribute.Int("gen_ai.request.tools", len(req.Tools)),
		),
	)
	sc := span.SpanContext()
	slog.Debug("llm span started", "op", op, "trace_id", sc.TraceID(), "span_id", sc.SpanID())
	return ctx, span
}

type tracedStream[T any] struct {
	Stream[T]
	span   oteltrace.Span
	events int
	ended  bool
}

func (s *tracedStream[T]) Next() bool {
	ok := s.Stream.Next()
	if ok {
		s.events++
	}
	return ok
}

func (s *tracedStream[T]) Close() error {
	err := s.Stream.Close()
	if !s.ended {
		s.ended = true
		endSpan(s.span, s.events, s.Stream.Err())
	}
	return err
}

func endSpan(span oteltrace.Span, events int, err error) {
	span.SetAttributes(attribute.Int("gen_ai.response.events", events))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
