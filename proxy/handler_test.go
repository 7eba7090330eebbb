package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"claude-gateway/adapters"
	"claude-gateway/circuitbreaker"
	"claude-gateway/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, upstreamURL string) *Handler {
	t.Helper()
	cfg := &config.Config{
		OpenAIBaseURL:         upstreamURL,
		ConnectionTimeout:     5 * time.Second,
		IdleConnectionTimeout: 5 * time.Second,
	}
	pipeline := adapters.New(cfg, nil, nil)
	gate := circuitbreaker.New(circuitbreaker.DefaultConfig())
	return NewHandler(cfg, pipeline, gate)
}

// TestHandleMessages_PlainTextNonStream covers scenario S1: a plain text
// non-stream turn round-trips to end_turn text content.
func TestHandleMessages_PlainTextNonStream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`))
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream.URL)

	reqBody := `{"model":"openai/gpt-4.1-mini","max_tokens":100,"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewBufferString(reqBody))
	rec := httptest.NewRecorder()

	h.HandleMessages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "end_turn", body["stop_reason"])
	content := body["content"].([]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "hello", content[0].(map[string]interface{})["text"])
}

// TestHandleMessages_DirectiveOverride covers scenario S4: a directive's
// global temperature override reaches the upstream request, and the
// delimiters never reach it.
func TestHandleMessages_DirectiveOverride(t *testing.T) {
	var capturedBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer upstream.Close()

	h := newTestHandler(t, upstream.URL)

	system := "be helpful\n--- PROXY DIRECTIVE ---\n{\"global\":{\"temperature\":0.1}}\n--- END DIRECTIVE ---"
	reqBody, _ := json.Marshal(map[string]interface{}{
		"model":      "gpt-4o",
		"max_tokens": 100,
		"system":     system,
		"messages":   []map[string]string{{"role": "user", "content": "hi"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewReader(reqBody))
	rec := httptest.NewRecorder()

	h.HandleMessages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var upstreamReq map[string]interface{}
	require.NoError(t, json.Unmarshal(capturedBody, &upstreamReq))
	assert.InDelta(t, 0.1, upstreamReq["temperature"], 0.0001)
	assert.NotContains(t, string(capturedBody), "PROXY DIRECTIVE")
}

func TestHandleCountTokens_ReturnsEstimate(t *testing.T) {
	h := newTestHandler(t, "http://unused.invalid")

	reqBody := `{"model":"gpt-4o","max_tokens":100,"messages":[{"role":"user","content":"hello there"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/messages/count_tokens", bytes.NewBufferString(reqBody))
	rec := httptest.NewRecorder()

	h.HandleCountTokens(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Greater(t, body["input_tokens"], 0)
}

func TestHandleMessages_MalformedJSONReturnsClientError(t *testing.T) {
	h := newTestHandler(t, "http://unused.invalid")

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()

	h.HandleMessages(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"error"`)
}
