package types

// ProxyDirective is the JSON document a client embeds in a system prompt,
// delimited by the `--- PROXY DIRECTIVE ---` / `--- END DIRECTIVE ---`
// markers, to steer the adapter pipeline for a single request.
type ProxyDirective struct {
	Global DirectiveApply   `json:"global,omitempty"`
	Rules  []DirectiveRule  `json:"rules,omitempty"`
}

// DirectiveRule is matched against the (post-suffix-stripped) model name;
// the first rule whose ModelContains is a substring of the model wins.
type DirectiveRule struct {
	If    DirectiveCondition `json:"if"`
	Apply DirectiveApply     `json:"apply"`
}

// DirectiveCondition is the predicate side of a rule.
type DirectiveCondition struct {
	ModelContains string `json:"modelContains"`
}

// DirectiveApply is the set of overrides a matched rule (or the global
// block) contributes. Nested objects (Responses) are merged shallowly: a
// present top-level key in a higher-precedence block fully replaces the
// same key from a lower-precedence block, it is never deep-merged field by
// field.
type DirectiveApply struct {
	// Request-parameter overrides, applied directly onto the inbound
	// AnthropicRequest before conversion.
	Temperature   *float64 `json:"temperature,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	TopK          *int     `json:"top_k,omitempty"`
	MaxTokens     *int     `json:"max_tokens,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`

	// Adapter-pipeline controls.
	DisableDefaultAdapters *bool           `json:"disableDefaultAdapters,omitempty"`
	SimulatedTools         string          `json:"simulatedTools,omitempty"` // "", "-xml-tools", "-bracket-tools"
	MaxTokensCeiling       *int            `json:"maxTokensCeiling,omitempty"`
	Responses              *ResponsesOptIn `json:"responses,omitempty"`
}

// ResponsesOptIn opts a request into the /v1/responses upstream path.
type ResponsesOptIn struct {
	Enable bool `json:"enable"`
}

// Merge layers o on top of base: any field o sets overrides the
// corresponding field in base, per-field (not deep-merged for Responses).
func (base DirectiveApply) Merge(o DirectiveApply) DirectiveApply {
	out := base
	if o.Temperature != nil {
		out.Temperature = o.Temperature
	}
	if o.TopP != nil {
		out.TopP = o.TopP
	}
	if o.TopK != nil {
		out.TopK = o.TopK
	}
	if o.MaxTokens != nil {
		out.MaxTokens = o.MaxTokens
	}
	if o.StopSequences != nil {
		out.StopSequences = o.StopSequences
	}
	if o.DisableDefaultAdapters != nil {
		out.DisableDefaultAdapters = o.DisableDefaultAdapters
	}
	if o.SimulatedTools != "" {
		out.SimulatedTools = o.SimulatedTools
	}
	if o.MaxTokensCeiling != nil {
		out.MaxTokensCeiling = o.MaxTokensCeiling
	}
	if o.Responses != nil {
		out.Responses = o.Responses
	}
	return out
}

// ApplyTo overlays the directive's request-parameter fields onto req.
func (a DirectiveApply) ApplyTo(req *AnthropicRequest) {
	if a.Temperature != nil {
		req.Temperature = a.Temperature
	}
	if a.TopP != nil {
		req.TopP = a.TopP
	}
	if a.TopK != nil {
		req.TopK = a.TopK
	}
	if a.MaxTokens != nil {
		req.MaxTokens = *a.MaxTokens
	}
	if a.StopSequences != nil {
		req.StopSequences = a.StopSequences
	}
}
