package proxy

import (
	"encoding/json"

	"claude-gateway/parser"
	"claude-gateway/types"

	"github.com/google/uuid"
)

// ConvertResponse transforms a complete OpenAI Chat Completions response
// into a Claude Message. clientModel is the pre-adapter model string the
// client originally sent, which is always what's echoed back regardless of
// what was actually forwarded upstream. simulatedTools is "",
// types.SuffixXMLTools, or types.SuffixBracketTools, selecting whether the
// assistant's text is scanned for simulated tool calls before being emitted.
func ConvertResponse(resp *types.OpenAIResponse, clientModel string, simulatedTools string) *types.AnthropicResponse {
	id := resp.ID
	if id == "" {
		id = "msg_" + uuid.NewString()
	}

	out := &types.AnthropicResponse{
		ID:    id,
		Type:  "message",
		Role:  "assistant",
		Model: clientModel,
		Usage: types.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}

	var choice types.OpenAIChoice
	if len(resp.Choices) > 0 {
		choice = resp.Choices[0]
	}

	if choice.Message.Reasoning != "" {
		out.Content = append(out.Content, types.Content{Type: "thinking", Thinking: choice.Message.Reasoning})
	}

	text, _ := choice.Message.Content.(string)
	if text != "" {
		if recognizer := parser.ForSuffix(simulatedTools); recognizer != nil {
			calls, remaining := parser.ExtractAll(recognizer, text)
			if remaining != "" {
				out.Content = append(out.Content, types.Content{Type: "text", Text: remaining})
			}
			for _, c := range calls {
				out.Content = append(out.Content, types.Content{Type: "tool_use", ID: c.ID, Name: c.Name, Input: c.Input})
			}
		} else {
			out.Content = append(out.Content, types.Content{Type: "text", Text: text})
		}
	}

	for _, tc := range choice.Message.ToolCalls {
		out.Content = append(out.Content, toolUseBlock(tc))
	}

	out.StopReason = mapStopReason(choice.FinishReason)

	return out
}

// toolUseBlock converts one OpenAI tool call into a tool_use content block,
// parsing its JSON-string arguments. A parse failure degrades to a
// diagnostic string field rather than dropping the call or failing the
// whole response.
func toolUseBlock(tc types.OpenAIToolCall) types.Content {
	id := tc.ID
	if id == "" {
		id = "toolu_" + uuid.NewString()
	}
	var input map[string]interface{}
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
		input = map[string]interface{}{
			"_parse_error": err.Error(),
			"_raw":         tc.Function.Arguments,
		}
	}
	return types.Content{Type: "tool_use", ID: id, Name: tc.Function.Name, Input: input}
}

// mapStopReason maps an OpenAI finish_reason onto a Claude stop_reason.
func mapStopReason(finishReason string) string {
	switch finishReason {
	case "stop":
		return "end_turn"
	case "length":
		return "max_tokens"
	case "tool_calls":
		return "tool_use"
	case "content_filter":
		return "stop_sequence"
	default:
		return "end_turn"
	}
}
