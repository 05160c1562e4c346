package a2ui

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed prompts/system.md
var SystemPrompt string

const actionFollowUp = `The user performed an action on the UI you built.

Action: %s
Current form data: %s
Surface ID: %s

Respond with A2UI JSONL to update the UI. For example:
- Show a success confirmation
- Show validation errors
- Transition to a new view

Remember: output ONLY valid A2UI JSONL, one JSON object per line. Reuse the same surfaceId. You may reuse existing component IDs to update them, or use new IDs for new components.`

// Request is the body of POST /a2ui.
type Request struct {
	Message   string         `json:"message"`
	SurfaceID string         `json:"surfaceId,omitempty"`
	Action    *Action        `json:"action,omitempty"`
	FormData  map[string]any `json:"formData,omitempty"`
}

type Action struct {
	Name string `json:"name"`
}

// Instruction is the user turn sent to the model: the message verbatim, or a
// follow-up describing the action when one is present.
func (r *Request) Instruction(surfaceID string) string {
	if r.Action == nil {
		return r.Message
	}
	name := r.Action.Name
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf(actionFollowUp, name, formJSON(r.FormData), surfaceID)
}

func formJSON(data map[string]any) string {
	if data == nil {
		data = map[string]any{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "{}"
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
