// Package llm is the boundary to the model API. Providers expose two pull
// streams: plain text deltas, and structured content events describing text
// and tool-use blocks as the model produces them.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrUnknownProvider = errors.New("unknown llm provider")

type Provider interface {
	StreamText(ctx context.Context, req *Request) (Stream[string], error)
	StreamContent(ctx context.Context, req *Request) (Stream[ContentEvent], error)
}

// Stream is a pull iterator over a model response. Next blocks until a value
// is available or the stream ends; Err reports why it ended. Close releases
// the underlying connection and is safe to call more than once.
type Stream[T any] interface {
	Next() bool
	Current() T
	Err() error
	Close() error
}

// ContentEvent is one of TextBlockStart, ToolUseBlockStart, TextDelta,
// ToolArgsDelta or BlockStop.
type ContentEvent interface {
	contentEvent()
}

type TextBlockStart struct{}

type ToolUseBlockStart struct {
	ID   string
	Name string
}

type TextDelta struct {
	Text string
}

type ToolArgsDelta struct {
	PartialJSON string
}

type BlockStop struct{}

func (TextBlockStart) contentEvent()    {}
func (ToolUseBlockStart) contentEvent() {}
func (TextDelta) contentEvent()         {}
func (ToolArgsDelta) contentEvent()     {}
func (BlockStop) contentEvent()         {}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Request is the provider-neutral request shape.
type Request struct {
	System   string
	Messages []Message
	Tools    []Tool
}

type Message struct {
	Role   Role
	Blocks []Block
}

// Block is one of TextBlock, ToolUseBlock or ToolResultBlock.
type Block interface {
	block()
}

type TextBlock struct {
	Text string
}

type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

type ToolResultBlock struct {
	ToolUseID string
	Content   string
}

func (TextBlock) block()       {}
func (ToolUseBlock) block()    {}
func (ToolResultBlock) block() {}

type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// UserText builds a single-message request from a system prompt and a user
// instruction.
func UserText(system, text string) *Request {
	return &Request{
		System: system,
		Messages: []Message{
			{Role: RoleUser, Blocks: []Block{TextBlock{Text: text}}},
		},
	}
}
