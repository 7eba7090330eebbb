package proxy

import (
	"encoding/json"

	"claude-gateway/types"
)

// EstimateTokens implements the count_tokens heuristic: serialize the
// converted upstream request and divide its byte length by 4, the common
// rough-cut rubric for English text. This is a conservative estimate, not
// an exact tokenizer count; no model call is made to produce it.
func EstimateTokens(req *types.OpenAIRequest) int {
	raw, err := json.Marshal(req)
	if err != nil {
		return 0
	}
	return len(raw) / 4
}
