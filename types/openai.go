package types

import "encoding/json"

// OpenAIRequest is the body sent to the upstream Chat Completions endpoint.
//
// ToolChoice is left as interface{} because the upstream accepts either a
// bare string ("auto", "required", "none") or an object
// {"type":"function","function":{"name":...}}; the request converter decides
// which shape to emit based on the incoming Claude tool_choice.
type OpenAIRequest struct {
	Model           string          `json:"model"`
	Messages        []OpenAIMessage `json:"messages"`
	Tools           []OpenAITool    `json:"tools,omitempty"`
	ToolChoice      interface{}     `json:"tool_choice,omitempty"`
	MaxTokens       int             `json:"max_tokens,omitempty"`
	Temperature     *float64        `json:"temperature,omitempty"`
	TopP            *float64        `json:"top_p,omitempty"`
	Stop            []string        `json:"stop,omitempty"`
	Stream          bool            `json:"stream,omitempty"`
	StreamOptions   *StreamOptions  `json:"stream_options,omitempty"`
	ReasoningEffort string          `json:"reasoning_effort,omitempty"`
}

// StreamOptions controls extra behavior of a streamed Chat Completions call.
// IncludeUsage, when true, asks the upstream to emit a final chunk carrying
// token usage alongside the [DONE] terminator.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// OpenAIMessage is a single entry in the flattened Chat Completions message
// array. Content is either a plain string or a []ContentPart when a user
// message has more than a single text part (for example image parts);
// ToolCallID is only set on role "tool".
type OpenAIMessage struct {
	Role       string           `json:"role"`
	Content    interface{}      `json:"content,omitempty"`
	Name       string           `json:"name,omitempty"`
	ToolCalls  []OpenAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	// Reasoning carries a provider's chain-of-thought content, emitted under
	// varying field names (reasoning_content, reasoning) depending on
	// upstream; UnmarshalJSON below normalizes both into this field.
	Reasoning string `json:"-"`
}

// rawOpenAIMessage mirrors OpenAIMessage for the purpose of accepting both
// "reasoning_content" and "reasoning" spellings used by different
// OpenAI-compatible providers.
type rawOpenAIMessage struct {
	Role             string           `json:"role"`
	Content          interface{}      `json:"content,omitempty"`
	Name             string           `json:"name,omitempty"`
	ToolCalls        []OpenAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID       string           `json:"tool_call_id,omitempty"`
	ReasoningContent string           `json:"reasoning_content,omitempty"`
	Reasoning        string           `json:"reasoning,omitempty"`
}

// UnmarshalJSON normalizes either "reasoning_content" or "reasoning" into
// OpenAIMessage.Reasoning.
func (m *OpenAIMessage) UnmarshalJSON(data []byte) error {
	var raw rawOpenAIMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Role = raw.Role
	m.Content = raw.Content
	m.Name = raw.Name
	m.ToolCalls = raw.ToolCalls
	m.ToolCallID = raw.ToolCallID
	if raw.ReasoningContent != "" {
		m.Reasoning = raw.ReasoningContent
	} else {
		m.Reasoning = raw.Reasoning
	}
	return nil
}

// MarshalJSON emits the wire spelling "reasoning_content" when Reasoning is
// set, matching the field most OpenAI-compatible providers read back.
func (m OpenAIMessage) MarshalJSON() ([]byte, error) {
	raw := rawOpenAIMessage{
		Role:             m.Role,
		Content:          m.Content,
		Name:             m.Name,
		ToolCalls:        m.ToolCalls,
		ToolCallID:       m.ToolCallID,
		ReasoningContent: m.Reasoning,
	}
	return json.Marshal(raw)
}

// ContentPart is one element of a multi-part OpenAIMessage.Content array.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL wraps an inline data: URI or a remote image URL.
type ImageURL struct {
	URL string `json:"url"`
}

// OpenAITool is a function tool definition in the Chat Completions shape.
type OpenAITool struct {
	Type     string             `json:"type"` // "function"
	Function OpenAIToolFunction `json:"function"`
}

// OpenAIToolFunction names a tool and describes its JSON-Schema parameters.
type OpenAIToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// OpenAIToolCall is one tool invocation requested by the assistant. Index is
// only meaningful on streamed deltas, where it identifies which concurrent
// tool call a fragment belongs to.
type OpenAIToolCall struct {
	Index    int                    `json:"index"`
	ID       string                 `json:"id,omitempty"`
	Type     string                 `json:"type,omitempty"` // "function"
	Function OpenAIToolCallFunction `json:"function"`
}

// OpenAIToolCallFunction carries the tool name and its (possibly partial,
// when streamed) JSON-encoded argument string.
type OpenAIToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// OpenAIResponse is a complete (non-streamed, or reconstructed) Chat
// Completions response.
type OpenAIResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

// OpenAIChoice is one completion candidate; the gateway only ever requests
// (and reads) index 0.
type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// OpenAIStreamChunk is a single `data: {...}` SSE frame from a streamed
// Chat Completions response.
type OpenAIStreamChunk struct {
	ID      string               `json:"id"`
	Object  string               `json:"object"`
	Model   string               `json:"model"`
	Choices []OpenAIStreamChoice `json:"choices"`
	Usage   *OpenAIUsage         `json:"usage,omitempty"`
}

// OpenAIStreamChoice carries one incremental delta plus, on the terminal
// chunk for this choice, a non-nil FinishReason.
type OpenAIStreamChoice struct {
	Index        int              `json:"index"`
	Delta        OpenAIStreamDelta `json:"delta"`
	FinishReason *string          `json:"finish_reason"`
}

// OpenAIStreamDelta is the incremental content of one stream chunk. Role is
// only set on the very first chunk of a choice. Reasoning normalizes either
// wire spelling ("reasoning_content" or "reasoning") the same way
// OpenAIMessage.Reasoning does for the non-stream path.
type OpenAIStreamDelta struct {
	Role      string           `json:"role,omitempty"`
	Content   string           `json:"content,omitempty"`
	ToolCalls []OpenAIToolCall `json:"tool_calls,omitempty"`
	Reasoning string           `json:"-"`
}

// rawOpenAIStreamDelta mirrors OpenAIStreamDelta for the purpose of
// accepting both "reasoning_content" and "reasoning" spellings.
type rawOpenAIStreamDelta struct {
	Role             string           `json:"role,omitempty"`
	Content          string           `json:"content,omitempty"`
	ToolCalls        []OpenAIToolCall `json:"tool_calls,omitempty"`
	ReasoningContent string           `json:"reasoning_content,omitempty"`
	Reasoning        string           `json:"reasoning,omitempty"`
}

// UnmarshalJSON normalizes either "reasoning_content" or "reasoning" into
// OpenAIStreamDelta.Reasoning.
func (d *OpenAIStreamDelta) UnmarshalJSON(data []byte) error {
	var raw rawOpenAIStreamDelta
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Role = raw.Role
	d.Content = raw.Content
	d.ToolCalls = raw.ToolCalls
	if raw.ReasoningContent != "" {
		d.Reasoning = raw.ReasoningContent
	} else {
		d.Reasoning = raw.Reasoning
	}
	return nil
}

// MarshalJSON emits the wire spelling "reasoning_content" when Reasoning is
// set.
func (d OpenAIStreamDelta) MarshalJSON() ([]byte, error) {
	raw := rawOpenAIStreamDelta{
		Role:             d.Role,
		Content:          d.Content,
		ToolCalls:        d.ToolCalls,
		ReasoningContent: d.Reasoning,
	}
	return json.Marshal(raw)
}

// OpenAIUsage reports prompt/completion/total token counts.
type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OpenAIErrorResponse is the error envelope an OpenAI-compatible upstream
// returns on a non-2xx response.
type OpenAIErrorResponse struct {
	Error OpenAIErrorDetail `json:"error"`
}

// OpenAIErrorDetail carries the upstream's error message, type, and code.
type OpenAIErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
}
