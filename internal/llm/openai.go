package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ResponsesClient is the part of the OpenAI SDK used here;
// *responses.ResponseService satisfies it.
type ResponsesClient interface {
	NewStreaming(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) *ssestream.Stream[responses.ResponseStreamEventUnion]
}

type OpenAIProvider struct {
	client    ResponsesClient
	model     string
	maxTokens int
}

func NewOpenAI(baseURL, apiKey, model string, maxTokens int) *OpenAIProvider {
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
	client := openai.NewClient(opts...)
	return newOpenAI(&client.Responses, model, maxTokens)
}

func newOpenAI(client ResponsesClient, model string, maxTokens int) *OpenAIProvider {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &OpenAIProvider{client: client, model: model, maxTokens: maxTokens}
}

func (o *OpenAIProvider) StreamText(ctx context.Context, req *Request) (Stream[string], error) {
	stream, err := o.open(ctx, req)
	if err != nil {
		return nil, err
	}
	return newMappedStream(stream, openAIText), nil
}

func (o *OpenAIProvider) StreamContent(ctx context.Context, req *Request) (Stream[ContentEvent], error) {
	stream, err := o.open(ctx, req)
	if err != nil {
		return nil, err
	}
	return newMappedStream(stream, newOpenAIContentMapper().convert), nil
}

func (o *OpenAIProvider) open(ctx context.Context, req *Request) (*ssestream.Stream[responses.ResponseStreamEventUnion], error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(o.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: encodeOpenAIInput(req.Messages),
		},
		MaxOutputTokens: openai.Int(int64(o.maxTokens)),
	}
	if req.System != "" {
		params.Instructions = openai.String(req.System)
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  t.InputSchema,
				Strict:      openai.Bool(false),
			},
		})
	}

	stream := o.client.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("openai responses stream: %w", err)
	}
	return stream, nil
}

// encodeOpenAIInput flattens block-structured messages into Responses input
// items: text becomes a role message, tool use a function_call and tool
// results a function_call_output.
func encodeOpenAIInput(msgs []Message) []responses.ResponseInputItemUnionParam {
	var items []responses.ResponseInputItemUnionParam
	for _, m := range msgs {
		role := responses.EasyInputMessageRoleUser
		if m.Role == RoleAssistant {
			role = responses.EasyInputMessageRoleAssistant
		}
		var text strings.Builder
		flush := func() {
			if text.Len() > 0 {
				items = append(items, responses.ResponseInputItemParamOfMessage(text.String(), role))
				text.Reset()
			}
		}
		for _, b := range m.Blocks {
			switch v := b.(type) {
			case TextBlock:
				text.WriteString(v.Text)
			case ToolUseBlock:
				flush()
				args := string(v.Input)
				if args == "" {
					args = "{}"
				}
				items = append(items, responses.ResponseInputItemParamOfFunctionCall(args, v.ID, v.Name))
			case ToolResultBlock:
				flush()
				items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(v.ToolUseID, v.Content))
			}
		}
		flush()
	}
	return items
}

func openAIText(ev responses.ResponseStreamEventUnion) (string, bool, error) {
	switch ev.Type {
	case "response.output_text.delta":
		return ev.Delta, ev.Delta != "", nil
	case "response.failed":
		return "", false, fmt.Errorf("response failed: %s", ev.Response.Error.Message)
	case "error":
		return "", false, fmt.Errorf("response error: %s", ev.Message)
	}
	return "", false, nil
}

// openAIContentMapper tracks which output items opened a block so that
// output_item.done closes only those.
type openAIContentMapper struct {
	open map[int64]bool
}

func newOpenAIContentMapper() *openAIContentMapper {
	return &openAIContentMapper{open: make(map[int64]bool)}
}

func (m *openAIContentMapper) convert(ev responses.ResponseStreamEventUnion) (ContentEvent, bool, error) {
	switch ev.Type {
	case "response.output_item.added":
		switch ev.Item.Type {
		case "message":
			m.open[ev.OutputIndex] = true
			return TextBlockStart{}, true, nil
		case "function_call":
			m.open[ev.OutputIndex] = true
			fc := ev.Item.AsFunctionCall()
			return ToolUseBlockStart{ID: fc.CallID, Name: fc.Name}, true, nil
		}
	case "response.output_text.delta":
		if ev.Delta == "" {
			return nil, false, nil
		}
		return TextDelta{Text: ev.Delta}, true, nil
	case "response.function_call_arguments.delta":
		if ev.Delta == "" {
			return nil, false, nil
		}
		return ToolArgsDelta{PartialJSON: ev.Delta}, true, nil
	case "response.output_item.done":
		if m.open[ev.OutputIndex] {
			delete(m.open, ev.OutputIndex)
			return BlockStop{}, true, nil
		}
	case "response.failed":
		return nil, false, fmt.Errorf("response failed: %s", ev.Response.Error.Message)
	case "error":
		return nil, false, fmt.Errorf("response error: %s", ev.Message)
	}
	return nil, false, nil
}
