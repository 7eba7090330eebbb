package adapters

import (
	"fmt"
	"strings"

	"claude-gateway/types"
)

// injectSimulatedToolPrompt appends instructions describing the active
// simulated tool-calling syntax, and each tool's name/description/schema,
// to the system prompt. This is the request-side half of simulated tool
// calling; the matching extraction half lives in package parser.
func injectSimulatedToolPrompt(req *types.AnthropicRequest, format string) {
	blocks := systemBlocks(req)
	blocks = append(blocks, types.SystemContent{Type: "text", Text: renderInstructions(format, req.Tools)})
	setSystemBlocks(req, blocks)
}

func renderInstructions(format string, tools []types.Tool) string {
	var b strings.Builder
	switch format {
	case types.SuffixXMLTools:
		b.WriteString("You do not have native function calling. To call a tool, emit a tag named after the tool containing one child element per parameter, for example:\n<tool_name><param_name>value</param_name></tool_name>\n\nAvailable tools:\n")
	case types.SuffixBracketTools:
		b.WriteString("You do not have native function calling. To call a tool, emit:\n[[TOOL_CALL: tool_name]]\nparam_name: value\n[[END_TOOL_CALL]]\n\nAvailable tools:\n")
	default:
		return ""
	}
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
	}
	return b.String()
}
