package adapters

import (
	"strings"

	"claude-gateway/config"
	"claude-gateway/types"
)

// knownProblematicPrompts maps known-problematic default system strings (or
// substrings) emitted by popular Claude Code-style clients to opinionated
// replacements that behave better on weaker or non-Anthropic upstream
// models. Matching is exact-string, never regex: the point is to catch
// specific known inputs, not to pattern-match arbitrary prompts.
var knownProblematicPrompts = []config.PromptRewrite{
	{
		Match:       "You are an interactive CLI tool that helps users with software engineering tasks.",
		Replacement: "You are a software engineering assistant running in a CLI tool.",
	},
}

// removedInstructions is a fixed set of exact instruction lines known to
// degrade weaker models (currently one line of verbose refusal boilerplate)
// and that are stripped outright rather than replaced.
var removedInstructions = []string{
	"IMPORTANT: Refuse to write code or explain code that may be used maliciously",
}

// rewriteDefaultPrompt mutates req's system text in place, applying the
// built-in exact-string rewrite and removal tables plus any additional
// rewrites loaded from prompt_rewrites.yaml. Non-matching content passes
// through untouched.
func rewriteDefaultPrompt(req *types.AnthropicRequest, extra []config.PromptRewrite) {
	blocks := systemBlocks(req)
	if len(blocks) == 0 {
		return
	}

	rewrites := append(append([]config.PromptRewrite{}, knownProblematicPrompts...), extra...)

	for i, b := range blocks {
		text := b.Text
		for _, removed := range removedInstructions {
			text = strings.ReplaceAll(text, removed, "")
		}
		for _, rw := range rewrites {
			text = strings.ReplaceAll(text, rw.Match, rw.Replacement)
		}
		blocks[i].Text = text
	}
	setSystemBlocks(req, blocks)
}

// systemBlocks normalizes req.System (string or []SystemContent) into a
// []types.SystemContent slice for in-place editing.
func systemBlocks(req *types.AnthropicRequest) []types.SystemContent {
	switch v := req.System.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []types.SystemContent{{Type: "text", Text: v}}
	case []types.SystemContent:
		return v
	case []interface{}:
		blocks := make([]types.SystemContent, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			text, _ := m["text"].(string)
			blocks = append(blocks, types.SystemContent{Type: "text", Text: text})
		}
		return blocks
	default:
		return nil
	}
}

// setSystemBlocks writes blocks back onto req.System, collapsing to a bare
// string when there is exactly one block (the common case), matching how
// most clients send system prompts in the first place.
func setSystemBlocks(req *types.AnthropicRequest, blocks []types.SystemContent) {
	if len(blocks) == 0 {
		req.System = nil
		return
	}
	if len(blocks) == 1 {
		req.System = blocks[0].Text
		return
	}
	req.System = blocks
}
