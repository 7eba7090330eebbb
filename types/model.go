package types

import "strings"

// Known simulated-tool-calling suffixes. A client asks for simulated tool
// calling by appending one of these to an otherwise ordinary model name;
// the gateway strips the suffix before forwarding upstream and uses it to
// pick a parser in package parser.
const (
	SuffixXMLTools     = "-xml-tools"
	SuffixBracketTools = "-bracket-tools"
)

// ParsedModel is a model identifier split into the part sent upstream and
// the simulated-tool-calling mode (if any) requested via suffix.
type ParsedModel struct {
	// UpstreamModel is the suffix-stripped name forwarded to OpenAI.
	UpstreamModel string
	// ClientModel is the original, unmodified string the client sent; it is
	// echoed back in every response the gateway produces for this request.
	ClientModel string
	// SimulatedTools is "", SuffixXMLTools, or SuffixBracketTools.
	SimulatedTools string
}

// ParseModel splits a client-supplied model string into its upstream form
// and simulated-tool-calling mode.
func ParseModel(model string) ParsedModel {
	p := ParsedModel{ClientModel: model, UpstreamModel: model}
	for _, suffix := range []string{SuffixXMLTools, SuffixBracketTools} {
		if strings.HasSuffix(model, suffix) {
			p.UpstreamModel = strings.TrimSuffix(model, suffix)
			p.SimulatedTools = suffix
			return p
		}
	}
	return p
}
