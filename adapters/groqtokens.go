package adapters

import (
	"strings"

	"claude-gateway/types"
)

// groqMaxTokensTargets are model-id substrings known to reject or silently
// truncate requests above a fixed max_tokens ceiling on Groq's hosted
// endpoints.
var groqMaxTokensTargets = []string{"kimi", "groq"}

// clampGroqMaxTokens lowers req.MaxTokens to ceiling when the model matches
// one of groqMaxTokensTargets and the request exceeds it. It never raises
// max_tokens.
func clampGroqMaxTokens(req *types.AnthropicRequest, model string, ceiling int) {
	if ceiling <= 0 {
		return
	}
	matched := false
	for _, target := range groqMaxTokensTargets {
		if strings.Contains(strings.ToLower(model), target) {
			matched = true
			break
		}
	}
	if !matched {
		return
	}
	if req.MaxTokens > ceiling {
		req.MaxTokens = ceiling
	}
}
