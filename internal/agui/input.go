package agui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RunAgentInput is the body of an AG-UI run request.
type RunAgentInput struct {
	ThreadID       string          `json:"threadId"`
	RunID          string          `json:"runId"`
	State          json.RawMessage `json:"state,omitempty"`
	Messages       []Message       `json:"messages"`
	Tools          []Tool          `json:"tools,omitempty"`
	Context        []ContextItem   `json:"context,omitempty"`
	ForwardedProps json.RawMessage `json:"forwardedProps,omitempty"`
}

// EnsureIDs fills in a missing thread or run id.
func (in *RunAgentInput) EnsureIDs() {
	if in.ThreadID == "" {
		in.ThreadID = uuid.NewString()
	}
	if in.RunID == "" {
		in.RunID = uuid.NewString()
	}
}

type Message struct {
	ID         string     `json:"id,omitempty"`
	Role       string     `json:"role"`
	Content    Content    `json:"content,omitzero"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name string `json:"name"`
	// Arguments is a JSON document encoded as a string.
	Arguments string `json:"arguments"`
}

// Tool is a client-side tool the model may call. Parameters is a JSON Schema
// object, or a string containing one.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type ContextItem struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// Content is a message body: either a plain string or a list of typed parts.
type Content struct {
	Parts []ContentPart
	list  bool
}

type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextContent returns a Content holding a plain string.
func TextContent(s string) Content {
	return Content{Parts: []ContentPart{{Type: "text", Text: s}}}
}

// Text concatenates the text parts.
func (c Content) Text() string {
	var b strings.Builder
	for _, p := range c.Parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func (c Content) IsZero() bool {
	return len(c.Parts) == 0 && !c.list
}

func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Content{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = TextContent(s)
		return nil
	case len(data) > 0 && data[0] == '[':
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = Content{Parts: parts, list: true}
		return nil
	default:
		return fmt.Errorf("message content must be a string or a list of parts, got %.20s", data)
	}
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.list {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text())
}
