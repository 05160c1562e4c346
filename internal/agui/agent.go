package agui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"uibridge/internal/llm"
	"uibridge/internal/trace"
)

const (
	DefaultStepName     = "claude_inference"
	DefaultSystemPrompt = "You are a helpful assistant. Use the tools provided by the user interface when they help answer the request."
)

type Option func(*Agent)

func WithSystemPrompt(s string) Option {
	return func(a *Agent) {
		if s != "" {
			a.systemPrompt = s
		}
	}
}

func WithStepName(s string) Option {
	return func(a *Agent) {
		if s != "" {
			a.stepName = s
		}
	}
}

// Agent answers AG-UI runs with a single model inference step.
type Agent struct {
	provider     llm.Provider
	systemPrompt string
	stepName     string
}

func NewAgent(provider llm.Provider, opts ...Option) *Agent {
	a := &Agent{
		provider:     provider,
		systemPrompt: DefaultSystemPrompt,
		stepName:     DefaultStepName,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run emits the event sequence for one run. The sequence always opens with
// RUN_STARTED and, unless emit itself fails or ctx is cancelled, ends with
// either RUN_FINISHED or a single RUN_ERROR. A model or conversion failure is
// returned after its RUN_ERROR has been emitted.
func (a *Agent) Run(ctx context.Context, in RunAgentInput, emit func(Event) error) error {
	in.EnsureIDs()

	ctx, span := trace.Tracer().Start(ctx, "agui.run",
		oteltrace.WithAttributes(
			attribute.String("agui.thread_id", in.ThreadID),
			attribute.String("agui.run_id", in.RunID),
			attribute.Int("agui.history", len(in.Messages)),
			attribute.Int("agui.tools", len(in.Tools)),
		),
	)
	defer span.End()

	r := &run{
		agent:     a,
		input:     in,
		emit:      emit,
		messageID: uuid.NewString(),
	}

	err := r.execute(ctx)
	var te transportError
	switch {
	case err == nil:
		span.SetAttributes(attribute.Int("agui.events", r.emitted))
		slog.Debug("agui run finished", "thread_id", in.ThreadID, "run_id", in.RunID, "events", r.emitted)
		return nil
	case errors.As(err, &te):
		return te.err
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("agui run failed", "thread_id", in.ThreadID, "run_id", in.RunID, "error", err)
		if emitErr := emit(NewRunError(err.Error())); emitErr != nil {
			return emitErr
		}
		return err
	}
}

// run holds the mutable state of one Run call.
type run struct {
	agent     *Agent
	input     RunAgentInput
	emit      func(Event) error
	messageID string
	textOpen  bool
	toolID    string
	emitted   int
}

func (r *run) send(ev Event) error {
	r.emitted++
	if err := r.emit(ev); err != nil {
		return transportError{err}
	}
	return nil
}

func (r *run) execute(ctx context.Context) error {
	in := r.input
	step := r.agent.stepName

	if err := r.send(NewRunStarted(in.ThreadID, in.RunID)); err != nil {
		return err
	}
	if err := r.send(NewStateSnapshot(State{
		MessageCount: len(in.Messages),
		LastQuery:    "",
		AgentStatus:  StatusProcessing,
	})); err != nil {
		return err
	}
	if err := r.send(NewStepStarted(step)); err != nil {
		return err
	}

	if err := r.infer(ctx); err != nil {
		return err
	}

	if r.textOpen {
		if err := r.send(NewTextMessageEnd(r.messageID)); err != nil {
			return err
		}
	}
	if err := r.send(NewStateDelta(
		Replace("/messageCount", len(in.Messages)+1),
		Replace("/lastQuery", LastUserQuery(in.Messages)),
		Replace("/agentStatus", StatusIdle),
	)); err != nil {
		return err
	}
	if err := r.send(NewStepFinished(step)); err != nil {
		return err
	}
	return r.send(NewRunFinished(in.ThreadID, in.RunID))
}

func (r *run) infer(ctx context.Context) error {
	tools, err := ConvertTools(r.input.Tools)
	if err != nil {
		return fmt.Errorf("convert tools: %w", err)
	}
	req := &llm.Request{
		System:   r.agent.systemPrompt,
		Messages: ConvertMessages(r.input.Messages),
		Tools:    tools,
	}

	stream, err := r.agent.provider.StreamContent(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Next() {
		if err := r.handle(stream.Current()); err != nil {
			return err
		}
	}
	return stream.Err()
}

func (r *run) handle(ev llm.ContentEvent) error {
	switch ev := ev.(type) {
	case llm.TextBlockStart:
		// One text message per run; later text blocks continue it.
		if r.textOpen {
			return nil
		}
		r.textOpen = true
		return r.send(NewTextMessageStart(r.messageID))
	case llm.ToolUseBlockStart:
		if r.toolID != "" {
			if err := r.closeTool(); err != nil {
				return err
			}
		}
		r.toolID = ev.ID
		return r.send(NewToolCallStart(ev.ID, ev.Name, r.messageID))
	case llm.TextDelta:
		if !r.textOpen || ev.Text == "" {
			return nil
		}
		return r.send(NewTextMessageContent(r.messageID, ev.Text))
	case llm.ToolArgsDelta:
		if r.toolID == "" || ev.PartialJSON == "" {
			return nil
		}
		return r.send(NewToolCallArgs(r.toolID, ev.PartialJSON))
	case llm.BlockStop:
		if r.toolID == "" {
			return nil
		}
		return r.closeTool()
	default:
		return fmt.Errorf("unexpected content event %T", ev)
	}
}

func (r *run) closeTool() error {
	id := r.toolID
	r.toolID = ""
	return r.send(NewToolCallEnd(id))
}

// transportError marks a failure to deliver an event to the client.
type transportError struct {
	err error
}

func (e transportError) Error() string { return e.err.Error() }
func (e transportError) Unwrap() error { return e.err }
