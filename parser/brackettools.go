package parser

import (
	"regexp"
	"strings"
)

// BracketRecognizer parses the "-bracket-tools" simulated format, designed
// to survive aggressive string-escaping by weaker models that mangle XML or
// literal JSON if asked to emit it directly. A call looks like:
//
//	[[TOOL_CALL: read_file]]
//	path: main.go
//	recursive: false
//	[[END_TOOL_CALL]]
//
// The body between the two bracket tokens is either `key: value` lines or a
// single fenced JSON block (```json ... ```). A fenced block, when present,
// is always used; if its JSON does not parse the input becomes
// {"_raw": <block>}. Otherwise the `key: value` lines are read.
type BracketRecognizer struct {
	call    *regexp.Regexp
	kv      *regexp.Regexp
	jsonFence *regexp.Regexp
}

// NewBracketRecognizer compiles the recognizer's patterns.
func NewBracketRecognizer() *BracketRecognizer {
	return &BracketRecognizer{
		call:      regexp.MustCompile(`(?s)\[\[TOOL_CALL:\s*([\w.-]+)\s*\]\](.*?)\[\[END_TOOL_CALL\]\]`),
		kv:        regexp.MustCompile(`(?m)^\s*([\w.-]+)\s*:\s*(.+?)\s*$`),
		jsonFence: regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```"),
	}
}

func (r *BracketRecognizer) Name() string { return "bracket-tools" }

// SafeTextPrefixLen returns how many leading bytes of buf cannot possibly
// be the start of a tool call.
func (r *BracketRecognizer) SafeTextPrefixLen(buf string) int {
	idx := strings.Index(buf, "[[")
	if idx == -1 {
		return len(buf)
	}
	return idx
}

// Extract finds the first complete call in buf and returns it along with
// buf with that call removed.
func (r *BracketRecognizer) Extract(buf string) (*ToolCall, string, bool) {
	loc := r.call.FindStringSubmatchIndex(buf)
	if loc == nil {
		return nil, buf, false
	}
	name := buf[loc[2]:loc[3]]
	body := buf[loc[4]:loc[5]]

	var input map[string]interface{}
	if fence := r.jsonFence.FindStringSubmatch(body); fence != nil {
		input = parseJSONObject(fence[1])
	} else {
		input = r.parseKV(body)
	}

	call := &ToolCall{ID: newToolCallID(), Name: name, Input: input}
	return call, buf[:loc[0]] + buf[loc[1]:], true
}

func (r *BracketRecognizer) parseKV(body string) map[string]interface{} {
	matches := r.kv.FindAllStringSubmatch(body, -1)
	params := make(map[string]interface{}, len(matches))
	for _, m := range matches {
		params[m[1]] = m[2]
	}
	return params
}
