package proxy

import (
	"bufio"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"claude-gateway/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseSSEEvents splits a recorded SSE body into (eventType, data) pairs in
// order, skipping keep-alive comments.
func parseSSEEvents(t *testing.T, body string) []struct{ event, data string } {
	t.Helper()
	var events []struct{ event, data string }
	scanner := bufio.NewScanner(strings.NewReader(body))
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			events = append(events, struct{ event, data string }{event, strings.TrimPrefix(line, "data: ")})
		}
	}
	return events
}

func newTestLogger() logging.Logger {
	return logging.New(context.Background())
}

func TestTranslateStream_SimpleTextDelta(t *testing.T) {
	upstream := strings.NewReader(
		"data: {\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\"}}]}\n\n" +
			"data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"hi\"}}]}\n\n" +
			"data: {\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n" +
			"data: [DONE]\n\n")

	rec := httptest.NewRecorder()
	err := TranslateStream(rec, rec, upstream, "claude-3-5-sonnet-20241022", "", newTestLogger())
	require.NoError(t, err)

	events := parseSSEEvents(t, rec.Body.String())
	require.True(t, len(events) >= 5)
	assert.Equal(t, "message_start", events[0].event)
	assert.Equal(t, "content_block_start", events[1].event)
	assert.Equal(t, "content_block_delta", events[2].event)
	assert.Contains(t, events[2].data, "hi")
	assert.Equal(t, "content_block_stop", events[3].event)
	assert.Equal(t, "message_delta", events[4].event)
	assert.Equal(t, "message_stop", events[5].event)
}

func TestTranslateStream_ToolCallRouting(t *testing.T) {
	lines := []string{
		`data: {"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"search","arguments":""}}]}}]}`,
		`data: {"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"q\":"}}]}}]}`,
		`data: {"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"go\"}"}}]}}]}`,
		`data: {"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
		`data: [DONE]`,
	}
	upstream := strings.NewReader(strings.Join(lines, "\n\n") + "\n\n")

	rec := httptest.NewRecorder()
	err := TranslateStream(rec, rec, upstream, "gpt-4o", "", newTestLogger())
	require.NoError(t, err)

	events := parseSSEEvents(t, rec.Body.String())
	var startCount, deltaCount int
	for _, e := range events {
		if e.event == "content_block_start" {
			startCount++
		}
		if e.event == "content_block_delta" {
			deltaCount++
		}
	}
	assert.Equal(t, 1, startCount)
	assert.Equal(t, 2, deltaCount)
	assert.Contains(t, rec.Body.String(), `"stop_reason":"tool_use"`)
}

func TestTranslateStream_MidStreamDisconnectEndsCleanly(t *testing.T) {
	upstream := strings.NewReader(
		"data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"partial\"}}]}\n\n")

	rec := httptest.NewRecorder()
	err := TranslateStream(rec, rec, upstream, "gpt-4o", "", newTestLogger())
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, "message_stop")
	assert.Contains(t, body, `"type":"error"`)
}

func TestTranslateStream_ReasoningBecomesThinkingDelta(t *testing.T) {
	upstream := strings.NewReader(
		"data: {\"choices\":[{\"index\":0,\"delta\":{\"reasoning_content\":\"let me think\"}}]}\n\n" +
			"data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"answer\"}}]}\n\n" +
			"data: {\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n" +
			"data: [DONE]\n\n")

	rec := httptest.NewRecorder()
	err := TranslateStream(rec, rec, upstream, "claude-3-5-sonnet-20241022", "", newTestLogger())
	require.NoError(t, err)

	events := parseSSEEvents(t, rec.Body.String())
	require.True(t, len(events) >= 6)
	assert.Equal(t, "content_block_start", events[1].event)
	assert.Contains(t, events[1].data, `"type":"thinking"`)
	assert.Equal(t, "content_block_delta", events[2].event)
	assert.Contains(t, events[2].data, `"thinking_delta"`)
	assert.Contains(t, events[2].data, "let me think")
	assert.Equal(t, "content_block_stop", events[3].event)
	assert.Equal(t, "content_block_start", events[4].event)
	assert.Contains(t, events[4].data, `"type":"text"`)
}

func TestTranslateStream_SimulatedToolExtraction(t *testing.T) {
	upstream := strings.NewReader(
		"data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"checking\"}}]}\n\n" +
			"data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"<read_file><path>x.go</path></read_file>\"}}]}\n\n" +
			"data: {\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n" +
			"data: [DONE]\n\n")

	rec := httptest.NewRecorder()
	err := TranslateStream(rec, rec, upstream, "llama3-xml-tools", "-xml-tools", newTestLogger())
	require.NoError(t, err)

	body := rec.Body.String()
	assert.Contains(t, body, `"type":"tool_use"`)
	assert.Contains(t, body, `"name":"read_file"`)
}
