// Package parser extracts simulated tool calls from free-form model text,
// for upstream models that do not support native OpenAI function calling.
// Both formats below are small recognizers built from compiled regular
// expressions.
package parser

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ToolCall is one synthesized tool invocation extracted from model prose.
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// newToolCallID synthesizes an id for a simulated tool call, since neither
// the XML nor the bracket format carries one of its own.
func newToolCallID() string {
	return "toolu_" + uuid.NewString()
}

// parseJSONObject best-effort parses body as a JSON object; on failure it
// falls back to a single-field object so the caller always gets something
// representable as tool input rather than dropping the call entirely.
func parseJSONObject(body string) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(body), &m); err == nil {
		return m
	}
	return map[string]interface{}{"_raw": body}
}
