package adapters

import (
	"strings"

	"claude-gateway/config"
	"claude-gateway/types"
)

// formatWhitelist is the small set of JSON-Schema string "format" values
// models like Gemini accept; anything else in a "format" keyword is
// stripped rather than forwarded, since an unrecognized format value causes
// some upstreams to reject the tool definition outright.
var formatWhitelist = map[string]bool{
	"date-time": true,
	"date":      true,
	"enum":      true,
}

// defaultSchemaCleanupTargets names model substrings whose upstream is
// known to reject specific JSON-Schema keywords.
var defaultSchemaCleanupTargets = []string{"gemini"}

// cleanToolSchemas walks req.Tools' input schemas and strips keywords the
// matched upstream model is known to reject: $schema, additionalProperties
// (unless it is true), non-whitelisted "format", and "default". Recursion is
// depth-unbounded (schemas are cycle-free by JSON contract) and descends
// into every nested object and array value, so a keyword is stripped
// wherever it occurs, including as a key directly under "properties".
func cleanToolSchemas(req *types.AnthropicRequest, model string, extra []config.ToolSchemaRule) {
	if len(req.Tools) == 0 {
		return
	}

	var strip []string
	for _, target := range defaultSchemaCleanupTargets {
		if strings.Contains(model, target) {
			strip = append(strip, "$schema", "additionalProperties", "format", "default")
		}
	}
	for _, rule := range extra {
		if rule.ModelContains != "" && strings.Contains(model, rule.ModelContains) {
			strip = append(strip, rule.StripKeywords...)
		}
	}
	if len(strip) == 0 {
		return
	}
	stripSet := toSet(strip)

	for i := range req.Tools {
		req.Tools[i].InputSchema.Raw = stripSchema(req.Tools[i].InputSchema.Raw, stripSet)
		for name, prop := range req.Tools[i].InputSchema.Properties {
			req.Tools[i].InputSchema.Properties[name] = cleanProperty(prop, stripSet)
		}
	}
}

func cleanProperty(prop types.ToolProperty, stripSet map[string]bool) types.ToolProperty {
	if prop.Items != nil {
		prop.Items = stripSchemaMap(prop.Items, stripSet)
	}
	if prop.Raw != nil {
		prop.Raw = stripSchemaMap(prop.Raw, stripSet)
	}
	return prop
}

func stripSchema(m map[string]interface{}, stripSet map[string]bool) map[string]interface{} {
	if m == nil {
		return nil
	}
	return stripSchemaMap(m, stripSet)
}

func stripSchemaMap(m map[string]interface{}, stripSet map[string]bool) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if stripSet[k] {
			if k == "additionalProperties" {
				if b, ok := v.(bool); ok && b {
					out[k] = v // additionalProperties:true is never the problem
				}
				continue
			}
			if k == "format" {
				if s, ok := v.(string); ok && formatWhitelist[s] {
					out[k] = v
				}
				continue
			}
			continue
		}
		switch vv := v.(type) {
		case map[string]interface{}:
			out[k] = stripSchemaMap(vv, stripSet)
		case []interface{}:
			out[k] = stripSchemaSlice(vv, stripSet)
		default:
			out[k] = v
		}
	}
	return out
}

func stripSchemaSlice(items []interface{}, stripSet map[string]bool) []interface{} {
	out := make([]interface{}, len(items))
	for i, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			out[i] = stripSchemaMap(m, stripSet)
		} else {
			out[i] = item
		}
	}
	return out
}

func toSet(keywords []string) map[string]bool {
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[k] = true
	}
	return set
}
