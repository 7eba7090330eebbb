package proxy

import (
	"testing"

	"claude-gateway/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertRequest_SimpleUserTurn(t *testing.T) {
	req := &types.AnthropicRequest{
		Model:     "gpt-4o",
		MaxTokens: 1024,
		Messages: []types.Message{
			{Role: "user", Content: "hello"},
		},
	}
	out, err := ConvertRequest(req, "be nice", "gpt-4o")
	require.NoError(t, err)
	require.Len(t, out.Messages, 2)
	assert.Equal(t, "system", out.Messages[0].Role)
	assert.Equal(t, "be nice", out.Messages[0].Content)
	assert.Equal(t, "user", out.Messages[1].Role)
	assert.Equal(t, "hello", out.Messages[1].Content)
}

func TestConvertRequest_UserBlocksSplitToolResult(t *testing.T) {
	req := &types.AnthropicRequest{
		MaxTokens: 100,
		Messages: []types.Message{
			{Role: "assistant", Content: []interface{}{
				map[string]interface{}{"type": "tool_use", "id": "abc", "name": "search", "input": map[string]interface{}{}},
			}},
			{Role: "user", Content: []interface{}{
				map[string]interface{}{"type": "text", "text": "here is the result"},
				map[string]interface{}{"type": "tool_result", "tool_use_id": "abc", "content": "42"},
				map[string]interface{}{"type": "text", "text": "thanks"},
			}},
		},
	}
	out, err := ConvertRequest(req, "", "gpt-4o")
	require.NoError(t, err)
	require.Len(t, out.Messages, 4)
	assert.Equal(t, "user", out.Messages[1].Role)
	assert.Equal(t, "here is the result", out.Messages[1].Content)
	assert.Equal(t, "tool", out.Messages[2].Role)
	assert.Equal(t, "abc", out.Messages[2].ToolCallID)
	assert.Equal(t, "42", out.Messages[2].Content)
	assert.Equal(t, "user", out.Messages[3].Role)
	assert.Equal(t, "thanks", out.Messages[3].Content)
}

func TestConvertRequest_DanglingToolUseIDIsClientSchemaError(t *testing.T) {
	req := &types.AnthropicRequest{
		MaxTokens: 100,
		Messages: []types.Message{
			{Role: "user", Content: []interface{}{
				map[string]interface{}{"type": "tool_result", "tool_use_id": "forged", "content": "42"},
			}},
		},
	}
	_, err := ConvertRequest(req, "", "gpt-4o")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forged")
}

func TestConvertRequest_AssistantToolUse(t *testing.T) {
	req := &types.AnthropicRequest{
		MaxTokens: 100,
		Messages: []types.Message{
			{Role: "assistant", Content: []interface{}{
				map[string]interface{}{"type": "text", "text": "let me check"},
				map[string]interface{}{"type": "tool_use", "id": "t1", "name": "search", "input": map[string]interface{}{"q": "go"}},
			}},
		},
	}
	out, err := ConvertRequest(req, "", "gpt-4o")
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	msg := out.Messages[0]
	assert.Equal(t, "let me check", msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "search", msg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"q":"go"}`, msg.ToolCalls[0].Function.Arguments)
}

func TestConvertRequest_AssistantThinkingDropped(t *testing.T) {
	req := &types.AnthropicRequest{
		MaxTokens: 100,
		Messages: []types.Message{
			{Role: "assistant", Content: []interface{}{
				map[string]interface{}{"type": "thinking", "thinking": "secret reasoning"},
				map[string]interface{}{"type": "text", "text": "answer"},
			}},
		},
	}
	out, err := ConvertRequest(req, "", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "answer", out.Messages[0].Content)
}

func TestConvertRequest_ToolChoiceMapping(t *testing.T) {
	cases := []struct {
		in   types.ToolChoice
		want interface{}
	}{
		{types.ToolChoice{Type: "auto"}, "auto"},
		{types.ToolChoice{Type: "any"}, "required"},
		{types.ToolChoice{Type: "none"}, "none"},
	}
	for _, c := range cases {
		req := &types.AnthropicRequest{MaxTokens: 1, ToolChoice: &c.in}
		out, err := ConvertRequest(req, "", "gpt-4o")
		require.NoError(t, err)
		assert.Equal(t, c.want, out.ToolChoice)
	}
}

func TestConvertRequest_ToolChoiceNamedTool(t *testing.T) {
	tc := types.ToolChoice{Type: "tool", Name: "search"}
	req := &types.AnthropicRequest{MaxTokens: 1, ToolChoice: &tc}
	out, err := ConvertRequest(req, "", "gpt-4o")
	require.NoError(t, err)
	m, ok := out.ToolChoice.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "function", m["type"])
}

func TestConvertRequest_ToolSchemaPropertyKeywordsSurviveVerbatim(t *testing.T) {
	req := &types.AnthropicRequest{
		MaxTokens: 1,
		Tools: []types.Tool{{
			Name: "search",
			InputSchema: types.ToolSchema{
				Type: "object",
				Properties: map[string]types.ToolProperty{
					"id": {
						Type: "string",
						Raw:  map[string]interface{}{"type": "string", "pattern": "^[0-9]+$", "minLength": float64(1)},
					},
				},
			},
		}},
	}
	out, err := ConvertRequest(req, "", "gpt-4o")
	require.NoError(t, err)
	require.Len(t, out.Tools, 1)
	params := out.Tools[0].Function.Parameters
	require.NotNil(t, params)
	props, ok := params["properties"].(map[string]types.ToolProperty)
	require.True(t, ok)
	idProp := props["id"]
	assert.Equal(t, "^[0-9]+$", idProp.Raw["pattern"])
	assert.Equal(t, float64(1), idProp.Raw["minLength"])
}

func TestConvertRequest_UnknownBlockKindIsClientSchemaError(t *testing.T) {
	req := &types.AnthropicRequest{
		MaxTokens: 1,
		Messages: []types.Message{
			{Role: "user", Content: []interface{}{
				map[string]interface{}{"type": "mystery"},
			}},
		},
	}
	_, err := ConvertRequest(req, "", "gpt-4o")
	require.Error(t, err)
}

func TestFlattenSystemText(t *testing.T) {
	assert.Equal(t, "", FlattenSystemText(nil))
	assert.Equal(t, "hi", FlattenSystemText("hi"))
	assert.Equal(t, "a\nb", FlattenSystemText([]types.SystemContent{{Text: "a"}, {Text: "b"}}))
}
