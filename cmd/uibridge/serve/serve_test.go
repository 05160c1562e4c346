package serve

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uibridge/internal/config"
	"uibridge/internal/llm"
)

func TestBuild(t *testing.T) {
	cfg := config.Default()
	cfg.LLMs["anthropic"].APIKey = "test-key"

	srv, err := build(cfg, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBuildUnknownLLM(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultLLM = "missing"
	_, err := build(cfg, nil)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.LLMs["anthropic"].Provider = "llama.cpp"
	_, err = build(cfg, nil)
	assert.True(t, errors.Is(err, llm.ErrUnknownProvider))
}
