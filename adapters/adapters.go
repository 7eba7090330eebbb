// Package adapters implements the ordered, pure-function pipeline that
// rewrites an in-flight Claude request before it is handed to the request
// converter. Every adapter is a no-op pass-through when it has nothing to
// do.
package adapters

import (
	"claude-gateway/config"
	"claude-gateway/directive"
	"claude-gateway/types"
)

// Pipeline is the fixed, ordered set of adapters applied to every request.
type Pipeline struct {
	cfg            *config.Config
	promptRewrites []config.PromptRewrite
	schemaRules    []config.ToolSchemaRule
}

// New builds the adapter pipeline from configuration and optional YAML
// extension tables.
func New(cfg *config.Config, promptRewrites []config.PromptRewrite, schemaRules []config.ToolSchemaRule) *Pipeline {
	return &Pipeline{cfg: cfg, promptRewrites: promptRewrites, schemaRules: schemaRules}
}

// Outcome is everything the pipeline decided about one request, beyond the
// (possibly mutated) request itself.
type Outcome struct {
	// SimulatedTools is "", types.SuffixXMLTools ("-xml-tools"), or
	// types.SuffixBracketTools ("-bracket-tools") — from the client's model
	// suffix, overridable by a directive.
	SimulatedTools string
	// UseResponsesAPI is true when a directive opted this request into the
	// /v1/responses upstream path.
	UseResponsesAPI bool
}

// Apply runs the fixed adapter sequence over req in place (directive
// application, default prompt rewrite, default tool-schema cleanup, Groq
// max_tokens clamp, simulated-tool prompt injection) and returns the
// decisions made along the way. parsed is the already suffix-split model
// identifier; req.Model is expected to already be parsed.UpstreamModel.
func (p *Pipeline) Apply(req *types.AnthropicRequest, parsed types.ParsedModel, d *types.ProxyDirective) Outcome {
	resolved := directive.Resolve(d, parsed.UpstreamModel)
	resolved.Apply.ApplyTo(req)

	disableDefaults := p.cfg.DisableDefaultAdapters
	if resolved.Apply.DisableDefaultAdapters != nil {
		disableDefaults = *resolved.Apply.DisableDefaultAdapters
	}

	if !disableDefaults {
		rewriteDefaultPrompt(req, p.promptRewrites)
		cleanToolSchemas(req, parsed.UpstreamModel, p.schemaRules)
	}

	ceiling := p.cfg.GroqMaxTokensCeiling
	if resolved.Apply.MaxTokensCeiling != nil {
		ceiling = *resolved.Apply.MaxTokensCeiling
	}
	if !p.cfg.DisableGroqMaxTokens {
		clampGroqMaxTokens(req, parsed.UpstreamModel, ceiling)
	}

	out := Outcome{SimulatedTools: parsed.SimulatedTools}
	if resolved.Apply.SimulatedTools != "" {
		out.SimulatedTools = resolved.Apply.SimulatedTools
	}
	if resolved.Apply.Responses != nil && resolved.Apply.Responses.Enable {
		out.UseResponsesAPI = true
	}

	if out.SimulatedTools != "" && len(req.Tools) > 0 {
		injectSimulatedToolPrompt(req, out.SimulatedTools)
	}

	return out
}
