package a2ui

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"uibridge/internal/llm"
	"uibridge/internal/trace"
)

type Option func(*Service)

// WithSystemPrompt replaces the built-in A2UI authoring prompt.
func WithSystemPrompt(s string) Option {
	return func(svc *Service) {
		if s != "" {
			svc.systemPrompt = s
		}
	}
}

// WithValidator logs records that do not match the A2UI schema. Records are
// emitted either way.
func WithValidator(v *Validator) Option {
	return func(svc *Service) { svc.validator = v }
}

// Service turns one request into a stream of A2UI records.
type Service struct {
	provider     llm.Provider
	systemPrompt string
	validator    *Validator
}

func NewService(provider llm.Provider, opts ...Option) *Service {
	s := &Service{
		provider:     provider,
		systemPrompt: SystemPrompt,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run streams the model's answer to req through a LineParser and passes each
// record to emit as soon as its line completes. A normal end is followed by a
// done record. If the model fails, a single error record is emitted and the
// failure is returned. An error from emit stops the run and is returned as-is.
func (s *Service) Run(ctx context.Context, req Request, emit func(Record) error) error {
	surfaceID := req.SurfaceID
	if surfaceID == "" {
		surfaceID = NewSurfaceID()
	}

	ctx, span := trace.Tracer().Start(ctx, "a2ui.run",
		oteltrace.WithAttributes(
			attribute.String("a2ui.surface_id", surfaceID),
			attribute.Bool("a2ui.action", req.Action != nil),
		),
	)
	defer span.End()

	emitted := 0
	send := func(rec Record) error {
		s.check(surfaceID, rec)
		emitted++
		return emit(rec)
	}

	err := s.stream(ctx, surfaceID, req.Instruction(surfaceID), send)
	var te transportError
	switch {
	case err == nil:
		span.SetAttributes(attribute.Int("a2ui.records", emitted))
		slog.Debug("a2ui run finished", "surface_id", surfaceID, "records", emitted)
		return emit(DoneRecord())
	case errors.As(err, &te):
		return te.err
	case ctx.Err() != nil:
		// The client is gone; there is nobody to tell.
		return ctx.Err()
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("a2ui upstream failure", "surface_id", surfaceID, "error", err)
		if emitErr := emit(ErrorRecord(err.Error())); emitErr != nil {
			return emitErr
		}
		return err
	}
}

func (s *Service) stream(ctx context.Context, surfaceID, instruction string, send func(Record) error) error {
	stream, err := s.provider.StreamText(ctx, llm.UserText(s.systemPrompt, instruction))
	if err != nil {
		return err
	}
	defer stream.Close()

	parser := NewLineParser(surfaceID)
	for stream.Next() {
		for _, rec := range parser.Feed(stream.Current()) {
			if err := send(rec); err != nil {
				return transportError{err}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	for _, rec := range parser.Flush() {
		if err := send(rec); err != nil {
			return transportError{err}
		}
	}
	return nil
}

func (s *Service) check(surfaceID string, rec Record) {
	if s.validator == nil {
		return
	}
	if err := s.validator.Validate(rec); err != nil {
		slog.Warn("a2ui record does not match schema", "surface_id", surfaceID, "type", rec.Type(), "error", err)
	}
}

// transportError marks a failure to deliver a record, as opposed to a model
// failure.
type transportError struct {
	err error
}

func (e transportError) Error() string { return e.err.Error() }
func (e transportError) Unwrap() error { return e.err }
