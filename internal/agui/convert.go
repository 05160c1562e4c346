package agui

import (
	"bytes"
	"encoding/json"
	"fmt"

	"uibridge/internal/llm"
)

// DefaultUserMessage is sent when the history holds nothing the model can use.
const DefaultUserMessage = "Hello"

var emptyObject = json.RawMessage(`{}`)

// ConvertMessages maps AG-UI history onto model messages. System and developer
// messages are dropped since the system prompt is configured server-side. Tool
// results become user messages carrying a tool_result block.
func ConvertMessages(msgs []Message) []llm.Message {
	var out []llm.Message
	for _, m := range msgs {
		switch m.Role {
		case "user":
			text := m.Content.Text()
			if text == "" {
				continue
			}
			out = append(out, llm.Message{
				Role:   llm.RoleUser,
				Blocks: []llm.Block{llm.TextBlock{Text: text}},
			})
		case "assistant":
			var blocks []llm.Block
			if text := m.Content.Text(); text != "" {
				blocks = append(blocks, llm.TextBlock{Text: text})
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, llm.ToolUseBlock{
					ID:    tc.ID,
					Name:  tc.Function.Name,
					Input: toolArguments(tc.Function.Arguments),
				})
			}
			if len(blocks) == 0 {
				continue
			}
			out = append(out, llm.Message{Role: llm.RoleAssistant, Blocks: blocks})
		case "tool":
			out = append(out, llm.Message{
				Role: llm.RoleUser,
				Blocks: []llm.Block{llm.ToolResultBlock{
					ToolUseID: m.ToolCallID,
					Content:   m.Content.Text(),
				}},
			})
		}
	}
	if len(out) == 0 {
		out = []llm.Message{{
			Role:   llm.RoleUser,
			Blocks: []llm.Block{llm.TextBlock{Text: DefaultUserMessage}},
		}}
	}
	return out
}

// toolArguments decodes a tool call's argument string. Anything that is not a
// JSON object becomes {}.
func toolArguments(args string) json.RawMessage {
	raw := bytes.TrimSpace([]byte(args))
	if len(raw) == 0 || raw[0] != '{' || !json.Valid(raw) {
		return emptyObject
	}
	return json.RawMessage(raw)
}

// ConvertTools maps the client's tool catalog onto model tools.
func ConvertTools(tools []Tool) ([]llm.Tool, error) {
	out := make([]llm.Tool, 0, len(tools))
	for _, t := range tools {
		schema, err := toolSchema(t.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool %q: %w", t.Name, err)
		}
		out = append(out, llm.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return out, nil
}

func toolSchema(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode parameters string: %w", err)
		}
		raw = []byte(s)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	if schema == nil {
		return nil, fmt.Errorf("parameters must be a JSON object")
	}
	return schema, nil
}

// LastUserQuery returns the text of the newest user message, or "".
func LastUserQuery(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return msgs[i].Content.Text()
		}
	}
	return ""
}
