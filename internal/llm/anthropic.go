package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultMaxTokens = 8192

// MessagesClient is the part of the Anthropic SDK used here; *sdk.MessageService
// satisfies it.
type MessagesClient interface {
	NewStreaming(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) *ssestream.Stream[sdk.MessageStreamEventUnion]
}

type AnthropicProvider struct {
	msg       MessagesClient
	model     string
	maxTokens int
}

func NewAnthropic(baseURL, apiKey, model string, maxTokens int) *AnthropicProvider {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, option.WithHTTPClient(&http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}))
	client := sdk.NewClient(opts...)
	return newAnthropic(&client.Messages, model, maxTokens)
}

func newAnthropic(msg MessagesClient, model string, maxTokens int) *AnthropicProvider {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &AnthropicProvider{msg: msg, model: model, maxTokens: maxTokens}
}

func (a *AnthropicProvider) StreamText(ctx context.Context, req *Request) (Stream[string], error) {
	stream, err := a.open(ctx, req)
	if err != nil {
		return nil, err
	}
	return newMappedStream(stream, anthropicText), nil
}

func (a *AnthropicProvider) StreamContent(ctx context.Context, req *Request) (Stream[ContentEvent], error) {
	stream, err := a.open(ctx, req)
	if err != nil {
		return nil, err
	}
	return newMappedStream(stream, anthropicContent), nil
}

func (a *AnthropicProvider) open(ctx context.Context, req *Request) (*ssestream.Stream[sdk.MessageStreamEventUnion], error) {
	params, err := a.params(req)
	if err != nil {
		return nil, err
	}
	stream := a.msg.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("anthropic messages stream: %w", err)
	}
	return stream, nil
}

func (a *AnthropicProvider) params(req *Request) (sdk.MessageNewParams, error) {
	msgs, err := encodeAnthropicMessages(req.Messages)
	if err != nil {
		return sdk.MessageNewParams{}, err
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages:  msgs,
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	for _, t := range req.Tools {
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: t.InputSchema}, t.Name)
		if u.OfTool != nil && t.Description != "" {
			u.OfTool.Description = sdk.String(t.Description)
		}
		params.Tools = append(params.Tools, u)
	}
	return params, nil
}

func encodeAnthropicMessages(msgs []Message) ([]sdk.MessageParam, error) {
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Blocks))
		for _, b := range m.Blocks {
			switch v := b.(type) {
			case TextBlock:
				blocks = append(blocks, sdk.NewTextBlock(v.Text))
			case ToolUseBlock:
				input := v.Input
				if len(input) == 0 {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, sdk.NewToolUseBlock(v.ID, input, v.Name))
			case ToolResultBlock:
				blocks = append(blocks, sdk.NewToolResultBlock(v.ToolUseID, v.Content, false))
			default:
				return nil, fmt.Errorf("anthropic: unsupported block %T", b)
			}
		}
		if len(blocks) == 0 {
			continue
		}
		switch m.Role {
		case RoleUser:
			out = append(out, sdk.NewUserMessage(blocks...))
		case RoleAssistant:
			out = append(out, sdk.NewAssistantMessage(blocks...))
		default:
			return nil, fmt.Errorf("anthropic: unsupported role %q", m.Role)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("anthropic: at least one message is required")
	}
	return out, nil
}

func anthropicText(ev sdk.MessageStreamEventUnion) (string, bool, error) {
	delta, ok := ev.AsAny().(sdk.ContentBlockDeltaEvent)
	if !ok {
		return "", false, nil
	}
	text, ok := delta.Delta.AsAny().(sdk.TextDelta)
	if !ok || text.Text == "" {
		return "", false, nil
	}
	return text.Text, true, nil
}

func anthropicContent(ev sdk.MessageStreamEventUnion) (ContentEvent, bool, error) {
	switch e := ev.AsAny().(type) {
	case sdk.ContentBlockStartEvent:
		switch b := e.ContentBlock.AsAny().(type) {
		case sdk.TextBlock:
			return TextBlockStart{}, true, nil
		case sdk.ToolUseBlock:
			return ToolUseBlockStart{ID: b.ID, Name: b.Name}, true, nil
		}
		// Thinking and server-tool blocks have no protocol counterpart.
		return nil, false, nil
	case sdk.ContentBlockDeltaEvent:
		switch d := e.Delta.AsAny().(type) {
		case sdk.TextDelta:
			return TextDelta{Text: d.Text}, true, nil
		case sdk.InputJSONDelta:
			return ToolArgsDelta{PartialJSON: d.PartialJSON}, true, nil
		}
		return nil, false, nil
	case sdk.ContentBlockStopEvent:
		return BlockStop{}, true, nil
	}
	return nil, false, nil
}
