// Package types defines the wire-level request/response shapes for both
// sides of the gateway: the Claude Messages API the gateway exposes to
// clients, and the OpenAI-compatible Chat Completions API it speaks to
// upstream.
package types

import "encoding/json"

// AnthropicRequest is the body of a POST /v1/messages call.
type AnthropicRequest struct {
	Model         string          `json:"model"`
	Messages      []Message       `json:"messages"`
	System        interface{}     `json:"system,omitempty"` // string or []SystemContent
	Tools         []Tool          `json:"tools,omitempty"`
	ToolChoice    *ToolChoice     `json:"tool_choice,omitempty"`
	MaxTokens     int             `json:"max_tokens"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	TopK          *int            `json:"top_k,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
	Stream        bool            `json:"stream,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// SystemContent is one block of a system prompt expressed as a content-block
// list rather than a bare string.
type SystemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message is one turn in the conversation. Content is either a bare string
// (shorthand for a single text block) or a []Content slice; callers must
// type-switch on it, mirroring how the wire format itself is polymorphic.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// Content is a single content block. Only the fields relevant to Type are
// populated; the rest are left at their zero value. This mirrors a tagged
// union with Type as the discriminant.
type Content struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// image
	Source *ImageSource `json:"source,omitempty"`

	// tool_use
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`

	// tool_result
	ToolUseID string      `json:"tool_use_id,omitempty"`
	Content2  interface{} `json:"content,omitempty"` // string or []Content, only set for tool_result
	IsError   bool        `json:"is_error,omitempty"`

	// thinking
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// ImageSource describes an inline base64-encoded image block.
type ImageSource struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Tool is a single tool definition offered to the model.
type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	InputSchema ToolSchema `json:"input_schema"`
}

// ToolSchema is a JSON Schema object describing a tool's input.
type ToolSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolProperty `json:"properties,omitempty"`
	Required   []string                `json:"required,omitempty"`
	// Raw preserves any additional JSON-Schema keywords (enum, items, $defs,
	// additionalProperties, ...) the adapter pipeline may need to inspect or
	// strip for a specific upstream model.
	Raw map[string]interface{} `json:"-"`
}

// UnmarshalJSON decodes a ToolSchema while also keeping the full raw object
// around in Raw, so keywords outside the typed fields (enum, $schema,
// additionalProperties, nested $defs, ...) survive round-tripping for the
// adapter pipeline's schema-cleanup step.
func (s *ToolSchema) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Raw = raw

	type alias ToolSchema
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	a.Raw = nil
	*s = ToolSchema(a)
	s.Raw = raw
	return nil
}

// MarshalJSON emits Raw merged with the typed fields, so any keywords an
// adapter added or preserved outside Type/Properties/Required are still
// forwarded upstream.
func (s ToolSchema) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Raw)+3)
	for k, v := range s.Raw {
		out[k] = v
	}
	if s.Type != "" {
		out["type"] = s.Type
	}
	if len(s.Properties) > 0 {
		out["properties"] = s.Properties
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return json.Marshal(out)
}

// ToolProperty is one property entry inside a ToolSchema. Raw preserves any
// JSON-Schema keyword beyond the typed fields (format, pattern, minLength,
// const, default, ...) so it survives round-tripping even though this type
// only gives named access to the keywords the adapter pipeline inspects.
type ToolProperty struct {
	Type        string                 `json:"type,omitempty"`
	Description string                 `json:"description,omitempty"`
	Enum        []interface{}          `json:"enum,omitempty"`
	Items       map[string]interface{} `json:"items,omitempty"`
	Raw         map[string]interface{} `json:"-"`
}

// UnmarshalJSON decodes a ToolProperty while keeping the full raw object
// around in Raw, mirroring ToolSchema.UnmarshalJSON.
func (p *ToolProperty) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	type alias ToolProperty
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = ToolProperty(a)
	p.Raw = raw
	return nil
}

// MarshalJSON emits Raw merged with the typed fields, so any keyword beyond
// type/description/enum/items is still forwarded upstream.
func (p ToolProperty) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Raw)+4)
	for k, v := range p.Raw {
		out[k] = v
	}
	if p.Type != "" {
		out["type"] = p.Type
	}
	if p.Description != "" {
		out["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		out["enum"] = p.Enum
	}
	if len(p.Items) > 0 {
		out["items"] = p.Items
	}
	return json.Marshal(out)
}

// ToolChoice controls how the model is required to use tools. Type is one
// of "auto", "any", "tool", or "none"; Name is only set when Type == "tool".
type ToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// AnthropicResponse is the body of a non-streaming /v1/messages reply.
type AnthropicResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"` // "message"
	Role         string    `json:"role"` // "assistant"
	Model        string    `json:"model"`
	Content      []Content `json:"content"`
	StopReason   string    `json:"stop_reason"`
	StopSequence *string   `json:"stop_sequence"`
	Usage        Usage     `json:"usage"`
}

// Usage reports token accounting. Exact counts are whatever the upstream
// reports; the gateway never recomputes them itself.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// AnthropicError is the envelope returned for every non-2xx response from
// the gateway, matching the Messages API's own error shape so clients don't
// need a gateway-specific error path.
type AnthropicError struct {
	Type  string      `json:"type"` // "error"
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the specific error type and a human-readable message.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewAnthropicError builds an AnthropicError envelope.
func NewAnthropicError(errType, message string) AnthropicError {
	return AnthropicError{
		Type: "error",
		Error: ErrorDetail{
			Type:    errType,
			Message: message,
		},
	}
}
