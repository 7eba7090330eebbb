// Package proxy implements the HTTP entry point: request conversion,
// non-streaming response conversion, and incremental stream translation
// between the Claude Messages API and an OpenAI-compatible Chat Completions
// upstream.
package proxy

import (
	"encoding/json"
	"fmt"
	"strings"

	"claude-gateway/gatewayerr"
	"claude-gateway/types"
)

// ConvertRequest transforms a (directive-stripped, adapter-mutated) Claude
// request into the OpenAI Chat Completions shape. systemText is the
// already-concatenated, directive-stripped system prompt; passing it
// separately keeps this function ignorant of how system text was assembled
// (the directive and adapter stages may have rewritten it).
func ConvertRequest(req *types.AnthropicRequest, systemText string, upstreamModel string) (*types.OpenAIRequest, error) {
	out := &types.OpenAIRequest{
		Model:  upstreamModel,
		Stream: req.Stream,
	}

	if systemText != "" {
		out.Messages = append(out.Messages, types.OpenAIMessage{Role: "system", Content: systemText})
	}

	knownToolUseIDs := make(map[string]bool)
	for _, msg := range req.Messages {
		converted, err := convertMessage(msg, knownToolUseIDs)
		if err != nil {
			return nil, err
		}
		out.Messages = append(out.Messages, converted...)
	}

	for _, tool := range req.Tools {
		params := map[string]interface{}{"type": tool.InputSchema.Type}
		for k, v := range tool.InputSchema.Raw {
			params[k] = v
		}
		if len(tool.InputSchema.Properties) > 0 {
			params["properties"] = tool.InputSchema.Properties
		}
		if len(tool.InputSchema.Required) > 0 {
			params["required"] = tool.InputSchema.Required
		}
		out.Tools = append(out.Tools, types.OpenAITool{
			Type: "function",
			Function: types.OpenAIToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		})
	}

	if req.ToolChoice != nil {
		choice, err := convertToolChoice(*req.ToolChoice)
		if err != nil {
			return nil, err
		}
		out.ToolChoice = choice
	}

	out.MaxTokens = req.MaxTokens
	out.Temperature = req.Temperature
	out.TopP = req.TopP
	if len(req.StopSequences) > 0 {
		out.Stop = req.StopSequences
	}

	return out, nil
}

// FlattenSystemText concatenates all system text blocks (string or
// []SystemContent shorthand) with newlines into a single string. An empty
// result signals the caller to omit the system message entirely.
func FlattenSystemText(system interface{}) string {
	switch v := system.(type) {
	case nil:
		return ""
	case string:
		return v
	case []types.SystemContent:
		parts := make([]string, len(v))
		for i, b := range v {
			parts[i] = b.Text
		}
		return strings.Join(parts, "\n")
	case []interface{}:
		var parts []string
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				if text, ok := m["text"].(string); ok {
					parts = append(parts, text)
				}
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

func convertToolChoice(tc types.ToolChoice) (interface{}, error) {
	switch tc.Type {
	case "auto":
		return "auto", nil
	case "any":
		return "required", nil
	case "none":
		return "none", nil
	case "tool":
		if tc.Name == "" {
			return nil, gatewayerr.New(gatewayerr.ClientSchema, "tool_choice of type \"tool\" requires a name")
		}
		return map[string]interface{}{
			"type":     "function",
			"function": map[string]interface{}{"name": tc.Name},
		}, nil
	default:
		return nil, gatewayerr.New(gatewayerr.ClientSchema, fmt.Sprintf("unknown tool_choice type %q", tc.Type))
	}
}

// convertMessage expands one Claude message into zero or more OpenAI
// messages. knownToolUseIDs accumulates tool_use ids seen in assistant
// messages as the conversation is walked in order, so a tool_result's
// tool_use_id can be checked against the tool_use blocks that actually
// precede it.
func convertMessage(msg types.Message, knownToolUseIDs map[string]bool) ([]types.OpenAIMessage, error) {
	switch text := msg.Content.(type) {
	case string:
		return []types.OpenAIMessage{{Role: msg.Role, Content: text}}, nil
	}

	blocks, err := decodeContentBlocks(msg.Content)
	if err != nil {
		return nil, gatewayerr.Wrap(gatewayerr.ClientSchema, "malformed message content", err)
	}

	if msg.Role == "assistant" {
		registerToolUseIDs(blocks, knownToolUseIDs)
		return convertAssistantBlocks(blocks)
	}
	return convertUserBlocks(blocks, knownToolUseIDs)
}

func registerToolUseIDs(blocks []types.Content, known map[string]bool) {
	for _, b := range blocks {
		if b.Type == "tool_use" && b.ID != "" {
			known[b.ID] = true
		}
	}
}

// decodeContentBlocks normalizes a message's polymorphic Content field
// (already json.Unmarshal'd into interface{}, so []interface{} of
// map[string]interface{}) into typed Content values by round-tripping
// through JSON.
func decodeContentBlocks(content interface{}) ([]types.Content, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	var blocks []types.Content
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// convertUserBlocks implements the user-message splitting rule: a
// contiguous run of non-tool_result blocks becomes one user message with
// content parts; each tool_result becomes its own tool message; relative
// order is preserved.
func convertUserBlocks(blocks []types.Content, knownToolUseIDs map[string]bool) ([]types.OpenAIMessage, error) {
	var out []types.OpenAIMessage
	var run []types.ContentPart

	flush := func() {
		if len(run) == 0 {
			return
		}
		out = append(out, types.OpenAIMessage{Role: "user", Content: run})
		run = nil
	}

	for _, b := range blocks {
		switch b.Type {
		case "text":
			run = append(run, types.ContentPart{Type: "text", Text: b.Text})
		case "image":
			if b.Source == nil {
				return nil, gatewayerr.New(gatewayerr.ClientSchema, "image block missing source")
			}
			uri := fmt.Sprintf("data:%s;base64,%s", b.Source.MediaType, b.Source.Data)
			run = append(run, types.ContentPart{Type: "image_url", ImageURL: &types.ImageURL{URL: uri}})
		case "tool_result":
			flush()
			toolMsg, err := convertToolResult(b, knownToolUseIDs)
			if err != nil {
				return nil, err
			}
			out = append(out, toolMsg)
		default:
			return nil, gatewayerr.New(gatewayerr.ClientSchema, fmt.Sprintf("unknown content block kind %q", b.Type))
		}
	}
	flush()

	return collapseSingleTextMessages(out), nil
}

// collapseSingleTextMessages rewrites any user message whose content is a
// single text part back into a bare string, matching how a plain turn with
// no images or tool results would be sent natively.
func collapseSingleTextMessages(msgs []types.OpenAIMessage) []types.OpenAIMessage {
	for i, m := range msgs {
		if m.Role != "user" {
			continue
		}
		parts, ok := m.Content.([]types.ContentPart)
		if !ok || len(parts) != 1 || parts[0].Type != "text" {
			continue
		}
		msgs[i].Content = parts[0].Text
	}
	return msgs
}

func convertToolResult(b types.Content, knownToolUseIDs map[string]bool) (types.OpenAIMessage, error) {
	if b.ToolUseID == "" {
		return types.OpenAIMessage{}, gatewayerr.New(gatewayerr.ClientSchema, "tool_result missing tool_use_id")
	}
	if !knownToolUseIDs[b.ToolUseID] {
		return types.OpenAIMessage{}, gatewayerr.New(gatewayerr.ClientSchema, fmt.Sprintf("tool_result references tool_use_id %q with no matching tool_use in a prior assistant message", b.ToolUseID))
	}
	return types.OpenAIMessage{
		Role:       "tool",
		ToolCallID: b.ToolUseID,
		Content:    toolResultText(b),
	}, nil
}

// toolResultText flattens a tool_result's polymorphic content (string or
// content-block list) to plain text for the upstream "tool" message.
func toolResultText(b types.Content) string {
	switch v := b.Content2.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		var blocks []types.Content
		if err := json.Unmarshal(raw, &blocks); err != nil {
			return string(raw)
		}
		var parts []string
		for _, blk := range blocks {
			if blk.Type == "text" {
				parts = append(parts, blk.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
}

// convertAssistantBlocks implements the assistant-message rule: text blocks
// join into content, tool_use blocks become tool_calls, thinking blocks are
// dropped.
func convertAssistantBlocks(blocks []types.Content) ([]types.OpenAIMessage, error) {
	var text strings.Builder
	var calls []types.OpenAIToolCall

	for _, b := range blocks {
		switch b.Type {
		case "text":
			text.WriteString(b.Text)
		case "thinking":
			// dropped: a reply-side artifact, never forwarded upstream.
		case "tool_use":
			args, err := json.Marshal(b.Input)
			if err != nil {
				return nil, gatewayerr.Wrap(gatewayerr.ClientSchema, "unrepresentable tool_use input", err)
			}
			calls = append(calls, types.OpenAIToolCall{
				ID:   b.ID,
				Type: "function",
				Function: types.OpenAIToolCallFunction{
					Name:      b.Name,
					Arguments: string(args),
				},
			})
		default:
			return nil, gatewayerr.New(gatewayerr.ClientSchema, fmt.Sprintf("unknown content block kind %q", b.Type))
		}
	}

	msg := types.OpenAIMessage{Role: "assistant"}
	if text.Len() > 0 {
		msg.Content = text.String()
	}
	if len(calls) > 0 {
		msg.ToolCalls = calls
	}
	return []types.OpenAIMessage{msg}, nil
}
