package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uibridge/internal/a2ui"
	"uibridge/internal/llm/llmtest"
)

func TestRun(t *testing.T) {
	provider := &llmtest.Provider{Text: []string{
		"{\"type\":\"beginRendering\",\"rootComponentId\":\"root\"}\n{\"type\":\"surfaceUpdate\",",
		"\"components\":[{\"id\":\"root\",\"type\":\"Text\",\"content\":\"<hi>\"}]}\n",
	}}
	var out bytes.Buffer

	err := run(context.Background(), a2ui.NewService(provider), a2ui.Request{Message: "hello", SurfaceID: "cli"}, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		`{"rootComponentId":"root","surfaceId":"cli","type":"beginRendering"}`,
		`{"components":[{"content":"<hi>","id":"root","type":"Text"}],"surfaceId":"cli","type":"surfaceUpdate"}`,
		`{"type":"done"}`,
	}, lines)
}

func TestRunUpstreamError(t *testing.T) {
	provider := &llmtest.Provider{OpenErr: errors.New("no api key")}
	var out bytes.Buffer

	err := run(context.Background(), a2ui.NewService(provider), a2ui.Request{Message: "hello"}, &out)
	require.Error(t, err)
	assert.Equal(t, "{\"message\":\"no api key\",\"type\":\"error\"}\n", out.String())
}
