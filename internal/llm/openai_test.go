package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type openAIDecoder struct {
	events []ssestream.Event
	i      int
}

func (d *openAIDecoder) Event() ssestream.Event { return d.events[d.i-1] }

func (d *openAIDecoder) Next() bool {
	if d.i >= len(d.events) {
		return false
	}
	d.i++
	return true
}

func (d *openAIDecoder) Close() error { return nil }
func (d *openAIDecoder) Err() error   { return nil }

type stubResponses struct {
	params responses.ResponseNewParams
	dec    *openAIDecoder
}

func (s *stubResponses) NewStreaming(_ context.Context, body responses.ResponseNewParams, _ ...option.RequestOption) *ssestream.Stream[responses.ResponseStreamEventUnion] {
	s.params = body
	return ssestream.NewStream[responses.ResponseStreamEventUnion](s.dec, nil)
}

func openAIEvents(data ...string) []ssestream.Event {
	out := make([]ssestream.Event, len(data))
	for i, d := range data {
		out[i] = ssestream.Event{Data: []byte(d)}
	}
	return out
}

func openAIScript() []ssestream.Event {
	return openAIEvents(
		`{"type":"response.created","sequence_number":0}`,
		`{"type":"response.output_item.added","output_index":0,"sequence_number":1,"item":{"type":"message","id":"msg_1","role":"assistant","status":"in_progress","content":[]}}`,
		`{"type":"response.output_text.delta","output_index":0,"content_index":0,"item_id":"msg_1","sequence_number":2,"delta":"Hi"}`,
		`{"type":"response.output_text.delta","output_index":0,"content_index":0,"item_id":"msg_1","sequence_number":3,"delta":" there"}`,
		`{"type":"response.output_item.done","output_index":0,"sequence_number":4,"item":{"type":"message","id":"msg_1","role":"assistant","status":"completed","content":[]}}`,
		`{"type":"response.output_item.added","output_index":1,"sequence_number":5,"item":{"type":"function_call","id":"fc_1","call_id":"call_1","name":"get_weather","arguments":""}}`,
		`{"type":"response.function_call_arguments.delta","output_index":1,"item_id":"fc_1","sequence_number":6,"delta":"{\"location\":\"Tokyo\"}"}`,
		`{"type":"response.output_item.done","output_index":1,"sequence_number":7,"item":{"type":"function_call","id":"fc_1","call_id":"call_1","name":"get_weather","arguments":"{\"location\":\"Tokyo\"}"}}`,
		`{"type":"response.output_item.added","output_index":2,"sequence_number":8,"item":{"type":"reasoning","id":"rs_1","summary":[]}}`,
		`{"type":"response.output_item.done","output_index":2,"sequence_number":9,"item":{"type":"reasoning","id":"rs_1","summary":[]}}`,
	)
}

func TestOpenAIStreamText(t *testing.T) {
	stub := &stubResponses{dec: &openAIDecoder{events: openAIScript()}}
	p := newOpenAI(stub, "gpt-4.1", 0)

	stream, err := p.StreamText(context.Background(), UserText("be terse", "hello"))
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []string{"Hi", " there"}, collect(t, stream))
	require.NoError(t, stream.Err())
	assert.Equal(t, "be terse", stub.params.Instructions.Value)
	assert.Equal(t, int64(defaultMaxTokens), stub.params.MaxOutputTokens.Value)
	assert.Len(t, stub.params.Input.OfInputItemList, 1)
}

func TestOpenAIStreamContent(t *testing.T) {
	p := newOpenAI(&stubResponses{dec: &openAIDecoder{events: openAIScript()}}, "gpt-4.1", 0)

	stream, err := p.StreamContent(context.Background(), UserText("", "hello"))
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []ContentEvent{
		TextBlockStart{},
		TextDelta{Text: "Hi"},
		TextDelta{Text: " there"},
		BlockStop{},
		ToolUseBlockStart{ID: "call_1", Name: "get_weather"},
		ToolArgsDelta{PartialJSON: `{"location":"Tokyo"}`},
		BlockStop{},
	}, collect(t, stream))
	require.NoError(t, stream.Err())
}

func TestOpenAIResponseFailed(t *testing.T) {
	events := openAIEvents(
		`{"type":"response.output_text.delta","output_index":0,"content_index":0,"item_id":"m","sequence_number":1,"delta":"partial"}`,
		`{"type":"response.failed","sequence_number":2,"response":{"id":"r","status":"failed","error":{"code":"server_error","message":"boom"}}}`,
	)
	p := newOpenAI(&stubResponses{dec: &openAIDecoder{events: events}}, "gpt-4.1", 0)

	stream, err := p.StreamText(context.Background(), UserText("", "hello"))
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []string{"partial"}, collect(t, stream))
	require.Error(t, stream.Err())
	assert.Contains(t, stream.Err().Error(), "boom")
}

func TestEncodeOpenAIInput(t *testing.T) {
	items := encodeOpenAIInput([]Message{
		{Role: RoleUser, Blocks: []Block{TextBlock{Text: "weather?"}}},
		{Role: RoleAssistant, Blocks: []Block{
			TextBlock{Text: "Checking."},
			ToolUseBlock{ID: "call_1", Name: "get_weather", Input: json.RawMessage(`{"location":"Paris"}`)},
		}},
		{Role: RoleUser, Blocks: []Block{ToolResultBlock{ToolUseID: "call_1", Content: "16C"}}},
	})
	require.Len(t, items, 4)
	require.NotNil(t, items[0].OfMessage)
	require.NotNil(t, items[1].OfMessage)
	require.NotNil(t, items[2].OfFunctionCall)
	assert.Equal(t, "call_1", items[2].OfFunctionCall.CallID)
	assert.Equal(t, "get_weather", items[2].OfFunctionCall.Name)
	assert.Equal(t, `{"location":"Paris"}`, items[2].OfFunctionCall.Arguments)
	require.NotNil(t, items[3].OfFunctionCallOutput)
	assert.Equal(t, "call_1", items[3].OfFunctionCallOutput.CallID)
}
