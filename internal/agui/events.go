// Package agui maps a model's content-event stream onto the AG-UI event
// protocol, bracketing every run with start and finish (or error) events.
package agui

type EventType string

const (
	EventRunStarted         EventType = "RUN_STARTED"
	EventRunFinished        EventType = "RUN_FINISHED"
	EventRunError           EventType = "RUN_ERROR"
	EventStepStarted        EventType = "STEP_STARTED"
	EventStepFinished       EventType = "STEP_FINISHED"
	EventTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTextMessageEnd     EventType = "TEXT_MESSAGE_END"
	EventToolCallStart      EventType = "TOOL_CALL_START"
	EventToolCallArgs       EventType = "TOOL_CALL_ARGS"
	EventToolCallEnd        EventType = "TOOL_CALL_END"
	EventStateSnapshot      EventType = "STATE_SNAPSHOT"
	EventStateDelta         EventType = "STATE_DELTA"
)

// Event is one of the concrete event structs in this file. Each serialises
// to the AG-UI JSON shape with its kind in the "type" field.
type Event interface {
	Kind() EventType
	event()
}

// header carries the discriminator shared by every event.
type header struct {
	Type EventType `json:"type"`
}

func (h header) Kind() EventType { return h.Type }
func (header) event()            {}

type RunStarted struct {
	header
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

type RunFinished struct {
	header
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
}

type RunError struct {
	header
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type StepStarted struct {
	header
	StepName string `json:"stepName"`
}

type StepFinished struct {
	header
	StepName string `json:"stepName"`
}

type TextMessageStart struct {
	header
	MessageID string `json:"messageId"`
	Role      string `json:"role"`
}

type TextMessageContent struct {
	header
	MessageID string `json:"messageId"`
	Delta     string `json:"delta"`
}

type TextMessageEnd struct {
	header
	MessageID string `json:"messageId"`
}

type ToolCallStart struct {
	header
	ToolCallID      string `json:"toolCallId"`
	ToolCallName    string `json:"toolCallName"`
	ParentMessageID string `json:"parentMessageId,omitempty"`
}

type ToolCallArgs struct {
	header
	ToolCallID string `json:"toolCallId"`
	Delta      string `json:"delta"`
}

type ToolCallEnd struct {
	header
	ToolCallID string `json:"toolCallId"`
}

type StateSnapshot struct {
	header
	Snapshot State `json:"snapshot"`
}

type StateDelta struct {
	header
	Delta []PatchOp `json:"delta"`
}

// State is the agent state shared with the client.
type State struct {
	MessageCount int    `json:"messageCount"`
	LastQuery    string `json:"lastQuery"`
	AgentStatus  string `json:"agentStatus"`
}

// PatchOp is a single RFC 6902 JSON Patch operation.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

const (
	StatusProcessing = "processing"
	StatusIdle       = "idle"
)

func NewRunStarted(threadID, runID string) RunStarted {
	return RunStarted{header{EventRunStarted}, threadID, runID}
}

func NewRunFinished(threadID, runID string) RunFinished {
	return RunFinished{header{EventRunFinished}, threadID, runID}
}

func NewRunError(message string) RunError {
	return RunError{header: header{EventRunError}, Message: message}
}

func NewStepStarted(name string) StepStarted {
	return StepStarted{header{EventStepStarted}, name}
}

func NewStepFinished(name string) StepFinished {
	return StepFinished{header{EventStepFinished}, name}
}

func NewTextMessageStart(messageID string) TextMessageStart {
	return TextMessageStart{header{EventTextMessageStart}, messageID, "assistant"}
}

func NewTextMessageContent(messageID, delta string) TextMessageContent {
	return TextMessageContent{header{EventTextMessageContent}, messageID, delta}
}

func NewTextMessageEnd(messageID string) TextMessageEnd {
	return TextMessageEnd{header{EventTextMessageEnd}, messageID}
}

func NewToolCallStart(id, name, parentMessageID string) ToolCallStart {
	return ToolCallStart{header{EventToolCallStart}, id, name, parentMessageID}
}

func NewToolCallArgs(id, delta string) ToolCallArgs {
	return ToolCallArgs{header{EventToolCallArgs}, id, delta}
}

func NewToolCallEnd(id string) ToolCallEnd {
	return ToolCallEnd{header{EventToolCallEnd}, id}
}

func NewStateSnapshot(s State) StateSnapshot {
	return StateSnapshot{header{EventStateSnapshot}, s}
}

func NewStateDelta(ops ...PatchOp) StateDelta {
	return StateDelta{header{EventStateDelta}, ops}
}

func Replace(path string, value any) PatchOp {
	return PatchOp{Op: "replace", Path: path, Value: value}
}
