package adapters

import (
	"testing"

	"claude-gateway/config"
	"claude-gateway/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteDefaultPrompt_ExactMatchOnly(t *testing.T) {
	req := &types.AnthropicRequest{
		System: "You are an interactive CLI tool that helps users with software engineering tasks.",
	}
	rewriteDefaultPrompt(req, nil)
	assert.Equal(t, "You are a software engineering assistant running in a CLI tool.", req.System)
}

func TestRewriteDefaultPrompt_NonMatchingPassesThrough(t *testing.T) {
	req := &types.AnthropicRequest{System: "completely unrelated system prompt"}
	rewriteDefaultPrompt(req, nil)
	assert.Equal(t, "completely unrelated system prompt", req.System)
}

func TestCleanToolSchemas_StripsUnsupportedKeywordsForGemini(t *testing.T) {
	req := &types.AnthropicRequest{
		Tools: []types.Tool{{
			Name: "search",
			InputSchema: types.ToolSchema{
				Type: "object",
				Raw: map[string]interface{}{
					"$schema":              "http://json-schema.org/draft-07/schema#",
					"additionalProperties": false,
					"type":                 "object",
				},
			},
		}},
	}
	cleanToolSchemas(req, "gemini-1.5-pro", nil)
	raw := req.Tools[0].InputSchema.Raw
	assert.NotContains(t, raw, "$schema")
	assert.NotContains(t, raw, "additionalProperties")
	assert.Equal(t, "object", raw["type"])
}

func TestCleanToolSchemas_StripsPropertyLevelFormatForGemini(t *testing.T) {
	req := &types.AnthropicRequest{
		Tools: []types.Tool{{
			Name: "search",
			InputSchema: types.ToolSchema{
				Type: "object",
				Properties: map[string]types.ToolProperty{
					"when": {
						Type: "string",
						Raw:  map[string]interface{}{"type": "string", "format": "uuid", "pattern": "^[0-9]+$"},
					},
				},
			},
		}},
	}
	cleanToolSchemas(req, "gemini-1.5-pro", nil)
	raw := req.Tools[0].InputSchema.Properties["when"].Raw
	assert.NotContains(t, raw, "format")
	assert.Equal(t, "^[0-9]+$", raw["pattern"])
}

func TestCleanToolSchemas_NoOpForUnmatchedModel(t *testing.T) {
	req := &types.AnthropicRequest{
		Tools: []types.Tool{{
			InputSchema: types.ToolSchema{Raw: map[string]interface{}{"$schema": "x"}},
		}},
	}
	cleanToolSchemas(req, "gpt-4o", nil)
	assert.Equal(t, "x", req.Tools[0].InputSchema.Raw["$schema"])
}

func TestClampGroqMaxTokens(t *testing.T) {
	req := &types.AnthropicRequest{MaxTokens: 100000}
	clampGroqMaxTokens(req, "moonshotai/kimi-k2", 8192)
	assert.Equal(t, 8192, req.MaxTokens)
}

func TestClampGroqMaxTokens_NoOpWhenUnderCeiling(t *testing.T) {
	req := &types.AnthropicRequest{MaxTokens: 1000}
	clampGroqMaxTokens(req, "moonshotai/kimi-k2", 8192)
	assert.Equal(t, 1000, req.MaxTokens)
}

func TestPipeline_Apply_DirectiveOverridesTemperature(t *testing.T) {
	cfg := &config.Config{GroqMaxTokensCeiling: 8192}
	p := New(cfg, nil, nil)
	temp := 0.1
	d := &types.ProxyDirective{Global: types.DirectiveApply{Temperature: &temp}}
	req := &types.AnthropicRequest{Model: "gpt-4o", MaxTokens: 1000}

	out := p.Apply(req, types.ParseModel("gpt-4o"), d)

	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.1, *req.Temperature)
	assert.Empty(t, out.SimulatedTools)
}

func TestPipeline_Apply_SimulatedToolsFromSuffix(t *testing.T) {
	cfg := &config.Config{GroqMaxTokensCeiling: 8192}
	p := New(cfg, nil, nil)
	req := &types.AnthropicRequest{Model: "llama3-xml-tools"}
	parsed := types.ParseModel("llama3-xml-tools")

	out := p.Apply(req, parsed, nil)
	assert.Equal(t, types.SuffixXMLTools, out.SimulatedTools)
}
