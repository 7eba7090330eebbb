package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"claude-gateway/internal/logging"
	"claude-gateway/parser"
	"claude-gateway/types"

	"github.com/google/uuid"
)

const heartbeatInterval = 12 * time.Second

// TranslateStream consumes an upstream OpenAI-compatible SSE body and
// writes the equivalent Claude SSE event sequence to w. It owns flushing
// and never returns until the stream is fully translated
// (on success, on a mid-stream upstream error, or on client disconnect).
func TranslateStream(w http.ResponseWriter, flusher http.Flusher, upstream io.Reader, clientModel, simulatedTools string, log logging.Logger) error {
	messageID := "msg_" + uuid.NewString()
	if err := writeSSEEvent(w, flusher, "message_start", messageStartPayload(messageID, clientModel)); err != nil {
		return err
	}

	t := &translator{
		w:          w,
		flusher:    flusher,
		registry:   newBlockRegistry(),
		recognizer: parser.ForSuffix(simulatedTools),
		log:        log,
	}

	lines := make(chan string)
	errc := make(chan error, 1)
	go sseLines(upstream, lines, errc)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				// Upstream closed the body. A well-formed stream ends with
				// a finish_reason chunk or "[DONE]", both of which return
				// below; reaching here means the connection dropped
				// mid-stream.
				return t.finishWithError("upstream closed connection unexpectedly")
			}
			if line == "[DONE]" {
				return t.finish("stop", nil)
			}
			var chunk types.OpenAIStreamChunk
			if err := json.Unmarshal([]byte(line), &chunk); err != nil {
				t.log.Warn("could not parse upstream stream chunk: %v", err)
				continue
			}
			if chunk.Usage != nil {
				t.usage = *chunk.Usage
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if err := t.applyDelta(choice.Delta); err != nil {
				return err
			}
			if choice.FinishReason != nil {
				return t.finish(*choice.FinishReason, &t.usage)
			}
		case err := <-errc:
			return t.finishWithError(err.Error())
		case <-ticker.C:
			if err := writeKeepAlive(w, flusher); err != nil {
				return err
			}
		}
	}
}

type translator struct {
	w          http.ResponseWriter
	flusher    http.Flusher
	registry   *blockRegistry
	recognizer parser.Recognizer
	simBuf     strings.Builder
	usage      types.OpenAIUsage
	log        logging.Logger
}

func (t *translator) applyDelta(delta types.OpenAIStreamDelta) error {
	if delta.Reasoning != "" {
		if err := t.emitTextThinkingDelta("thinking", delta.Reasoning); err != nil {
			return err
		}
	}
	if delta.Content != "" {
		if err := t.emitText(delta.Content); err != nil {
			return err
		}
	}
	for _, tc := range delta.ToolCalls {
		if err := t.applyToolCallDelta(tc); err != nil {
			return err
		}
	}
	return nil
}

// emitText routes a text delta through the simulated-tool scanner (if
// active) or straight to a Claude text block.
func (t *translator) emitText(text string) error {
	if t.recognizer == nil {
		return t.emitTextThinkingDelta("text", text)
	}

	t.simBuf.WriteString(text)
	buf := t.simBuf.String()
	for {
		safeLen := t.recognizer.SafeTextPrefixLen(buf)
		if safeLen > 0 {
			if err := t.emitTextThinkingDelta("text", buf[:safeLen]); err != nil {
				return err
			}
			buf = buf[safeLen:]
		}
		call, rest, ok := t.recognizer.Extract(buf)
		if !ok {
			break
		}
		if err := t.closeTextThinking(); err != nil {
			return err
		}
		if err := t.emitSimulatedToolCall(*call); err != nil {
			return err
		}
		buf = rest
	}
	t.simBuf.Reset()
	t.simBuf.WriteString(buf)
	return nil
}

// emitTextThinkingDelta opens a text/thinking block if needed (closing the
// other kind first, since they're mutually exclusive) and emits a delta.
func (t *translator) emitTextThinkingDelta(kind, text string) error {
	if t.registry.textThinkingIndex == -1 {
		if err := t.openTextThinking(kind); err != nil {
			return err
		}
	} else if t.registry.textThinkingKind != kind {
		if err := t.closeTextThinking(); err != nil {
			return err
		}
		if err := t.openTextThinking(kind); err != nil {
			return err
		}
	}

	index := t.registry.textThinkingIndex
	deltaType := "text_delta"
	field := "text"
	if kind == "thinking" {
		deltaType = "thinking_delta"
		field = "thinking"
	}
	return writeSSEEvent(t.w, t.flusher, "content_block_delta", map[string]interface{}{
		"type":  "content_block_delta",
		"index": index,
		"delta": map[string]interface{}{"type": deltaType, field: text},
	})
}

func (t *translator) openTextThinking(kind string) error {
	index := t.registry.allocate()
	t.registry.textThinkingIndex = index
	t.registry.textThinkingKind = kind

	block := map[string]interface{}{"type": kind}
	if kind == "text" {
		block["text"] = ""
	} else {
		block["thinking"] = ""
	}
	return writeSSEEvent(t.w, t.flusher, "content_block_start", map[string]interface{}{
		"type": "content_block_start", "index": index, "content_block": block,
	})
}

func (t *translator) closeTextThinking() error {
	if t.registry.textThinkingIndex == -1 {
		return nil
	}
	index := t.registry.textThinkingIndex
	t.registry.close(index)
	t.registry.textThinkingIndex = -1
	return writeSSEEvent(t.w, t.flusher, "content_block_stop", map[string]interface{}{
		"type": "content_block_stop", "index": index,
	})
}

// applyToolCallDelta routes one upstream tool_calls[] fragment to its
// local block, opening it on first sighting.
func (t *translator) applyToolCallDelta(tc types.OpenAIToolCall) error {
	localIndex, known := t.registry.toolIndex[tc.Index]
	if !known {
		if err := t.closeTextThinking(); err != nil {
			return err
		}
		localIndex = t.registry.allocate()
		t.registry.toolIndex[tc.Index] = localIndex

		id := tc.ID
		if id == "" {
			id = "toolu_" + uuid.NewString()
		}
		if err := writeSSEEvent(t.w, t.flusher, "content_block_start", map[string]interface{}{
			"type":  "content_block_start",
			"index": localIndex,
			"content_block": map[string]interface{}{
				"type": "tool_use", "id": id, "name": tc.Function.Name, "input": map[string]interface{}{},
			},
		}); err != nil {
			return err
		}
	}

	if tc.Function.Arguments == "" {
		return nil
	}
	return writeSSEEvent(t.w, t.flusher, "content_block_delta", map[string]interface{}{
		"type":  "content_block_delta",
		"index": localIndex,
		"delta": map[string]interface{}{"type": "input_json_delta", "partial_json": tc.Function.Arguments},
	})
}

// emitSimulatedToolCall emits a complete tool_use block (start, one
// input_json_delta, stop) for a call extracted from scanned prose, where
// the full arguments are already known and there is no streamed fragment.
func (t *translator) emitSimulatedToolCall(call parser.ToolCall) error {
	index := t.registry.allocate()
	if err := writeSSEEvent(t.w, t.flusher, "content_block_start", map[string]interface{}{
		"type":  "content_block_start",
		"index": index,
		"content_block": map[string]interface{}{
			"type": "tool_use", "id": call.ID, "name": call.Name, "input": map[string]interface{}{},
		},
	}); err != nil {
		return err
	}
	argsJSON, err := json.Marshal(call.Input)
	if err != nil {
		argsJSON = []byte("{}")
	}
	if err := writeSSEEvent(t.w, t.flusher, "content_block_delta", map[string]interface{}{
		"type":  "content_block_delta",
		"index": index,
		"delta": map[string]interface{}{"type": "input_json_delta", "partial_json": string(argsJSON)},
	}); err != nil {
		return err
	}
	t.registry.close(index)
	return writeSSEEvent(t.w, t.flusher, "content_block_stop", map[string]interface{}{
		"type": "content_block_stop", "index": index,
	})
}

// finish flushes any pending simulated-tool buffer as trailing text, closes
// every open block in reverse order, and emits message_delta + message_stop.
func (t *translator) finish(finishReason string, usage *types.OpenAIUsage) error {
	if t.simBuf.Len() > 0 {
		pending := t.simBuf.String()
		t.simBuf.Reset()
		if err := t.emitTextThinkingDelta("text", pending); err != nil {
			return err
		}
	}
	for _, index := range t.registry.closeAll() {
		if err := writeSSEEvent(t.w, t.flusher, "content_block_stop", map[string]interface{}{
			"type": "content_block_stop", "index": index,
		}); err != nil {
			return err
		}
	}

	outUsage := types.Usage{}
	if usage != nil {
		outUsage = types.Usage{InputTokens: usage.PromptTokens, OutputTokens: usage.CompletionTokens}
	}
	if err := writeSSEEvent(t.w, t.flusher, "message_delta", map[string]interface{}{
		"type":  "message_delta",
		"delta": map[string]interface{}{"stop_reason": mapStopReason(finishReason), "stop_sequence": nil},
		"usage": outUsage,
	}); err != nil {
		return err
	}
	return writeSSEEvent(t.w, t.flusher, "message_stop", map[string]interface{}{"type": "message_stop"})
}

// finishWithError closes out the stream on a mid-stream upstream error:
// close every open block, emit message_delta{stop_reason:end_turn} with
// whatever partial usage is known, then message_stop, after surfacing an
// out-of-band error event for clients that understand it.
func (t *translator) finishWithError(message string) error {
	_ = writeSSEEvent(t.w, t.flusher, "error", map[string]interface{}{
		"type":  "error",
		"error": map[string]interface{}{"type": "api_error", "message": message},
	})
	return t.finish("stop", &t.usage)
}

func messageStartPayload(id, clientModel string) map[string]interface{} {
	return map[string]interface{}{
		"type": "message_start",
		"message": map[string]interface{}{
			"id":            id,
			"type":          "message",
			"role":          "assistant",
			"model":         clientModel,
			"content":       []interface{}{},
			"stop_reason":   nil,
			"stop_sequence": nil,
			"usage":         map[string]interface{}{"input_tokens": 0, "output_tokens": 0},
		},
	}
}
