// Package directive implements extraction and application of the in-band
// PROXY DIRECTIVE DSL embedded in a request's system prompt.
package directive

import (
	"encoding/json"
	"strings"

	"claude-gateway/gatewayerr"
	"claude-gateway/types"
)

const (
	startMarker = "--- PROXY DIRECTIVE ---"
	endMarker   = "--- END DIRECTIVE ---"
)

// Result is the outcome of extracting a directive from a system prompt.
type Result struct {
	// Directive is nil when no directive block was present.
	Directive *types.ProxyDirective
	// System is the system text with the delimited region (and the single
	// surrounding newline) removed. Equal to the input when Directive is nil.
	System string
}

// Extract finds the first PROXY DIRECTIVE block in system, parses it, and
// returns the system text with the block stripped. If no block is present
// it returns the input unchanged with a nil Directive. A malformed JSON body
// inside the delimiters fails the request with a gatewayerr.Directive error.
func Extract(system string) (Result, error) {
	startIdx := strings.Index(system, startMarker)
	if startIdx == -1 {
		return Result{System: system}, nil
	}
	bodyStart := startIdx + len(startMarker)
	endIdx := strings.Index(system[bodyStart:], endMarker)
	if endIdx == -1 {
		return Result{System: system}, nil
	}
	endIdx += bodyStart

	body := system[bodyStart:endIdx]
	var d types.ProxyDirective
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &d); err != nil {
		return Result{}, gatewayerr.Wrap(gatewayerr.Directive, "malformed PROXY DIRECTIVE block", err)
	}

	regionEnd := endIdx + len(endMarker)
	stripped := system[:startIdx] + system[regionEnd:]
	stripped = collapseSurroundingNewline(system, startIdx, regionEnd, stripped)

	return Result{Directive: &d, System: stripped}, nil
}

// collapseSurroundingNewline drops the newline immediately after the removed
// region when there is also one immediately before it, so stripping a
// directive that sat on its own line doesn't leave a blank line behind.
// start/end refer to offsets in the original, unstripped string.
func collapseSurroundingNewline(original string, start, end int, stripped string) string {
	hasBefore := start > 0 && original[start-1] == '\n'
	hasAfter := end < len(original) && original[end] == '\n'
	if !hasBefore || !hasAfter {
		return stripped
	}
	// stripped = original[:start] + original[end:]; keep the newline that
	// ends original[:start] and skip the one at original[end].
	return original[:start] + original[end+1:]
}

// Resolved is the fully merged directive override set for one request.
type Resolved struct {
	Apply types.DirectiveApply
}

// Resolve merges a parsed directive's global block with the first rule
// whose modelContains matches (case-sensitive substring) model, per
// "rule over global over request" precedence. A nil directive resolves to
// the zero value (no overrides).
func Resolve(d *types.ProxyDirective, model string) Resolved {
	if d == nil {
		return Resolved{}
	}
	merged := d.Global
	for _, rule := range d.Rules {
		if rule.If.ModelContains != "" && strings.Contains(model, rule.If.ModelContains) {
			merged = merged.Merge(rule.Apply)
			break
		}
	}
	return Resolved{Apply: merged}
}
