package proxy

import (
	"encoding/json"

	"claude-gateway/types"

	"github.com/google/uuid"
)

// responsesAPIOutput is the slice of the OpenAI Responses API reply shape
// this gateway understands: one assistant message made of output_text
// parts, plus token usage. Tool calls and reasoning items in the Responses
// shape are out of scope for this experimental path.
type responsesAPIOutput struct {
	ID     string `json:"id"`
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// ConvertResponsesOutput converts a raw Responses API JSON body into a
// Claude Message. A body that doesn't parse as the expected shape yields an
// empty-text message rather than failing the request outright, since this
// path is directive-opt-in and best-effort.
func ConvertResponsesOutput(body []byte, clientModel string) *types.AnthropicResponse {
	var parsed responsesAPIOutput
	_ = json.Unmarshal(body, &parsed)

	id := parsed.ID
	if id == "" {
		id = "msg_" + uuid.NewString()
	}

	out := &types.AnthropicResponse{
		ID:         id,
		Type:       "message",
		Role:       "assistant",
		Model:      clientModel,
		StopReason: "end_turn",
		Usage: types.Usage{
			InputTokens:  parsed.Usage.InputTokens,
			OutputTokens: parsed.Usage.OutputTokens,
		},
	}

	for _, item := range parsed.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Text != "" {
				out.Content = append(out.Content, types.Content{Type: "text", Text: part.Text})
			}
		}
	}

	return out
}
