package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXMLRecognizer_ExtractBareCall(t *testing.T) {
	r := NewXMLRecognizer()
	buf := "Let me check that.\n<read_file><path>main.go</path></read_file>\nDone."

	call, rest, ok := r.Extract(buf)
	require.True(t, ok)
	assert.Equal(t, "read_file", call.Name)
	assert.Equal(t, "main.go", call.Input["path"])
	assert.Equal(t, "Let me check that.\n\nDone.", rest)
}

func TestXMLRecognizer_WrappedCall(t *testing.T) {
	r := NewXMLRecognizer()
	buf := "<tool_call><search><query>golang</query></search></tool_call>"

	call, _, ok := r.Extract(buf)
	require.True(t, ok)
	assert.Equal(t, "search", call.Name)
	assert.Equal(t, "golang", call.Input["query"])
}

func TestXMLRecognizer_SafeTextPrefixLen(t *testing.T) {
	r := NewXMLRecognizer()
	assert.Equal(t, len("plain text"), r.SafeTextPrefixLen("plain text"))
	assert.Equal(t, 6, r.SafeTextPrefixLen("prefix<tool>"))
}

func TestBracketRecognizer_KeyValueBody(t *testing.T) {
	r := NewBracketRecognizer()
	buf := "checking...\n[[TOOL_CALL: read_file]]\npath: main.go\nrecursive: false\n[[END_TOOL_CALL]]\nok"

	call, rest, ok := r.Extract(buf)
	require.True(t, ok)
	assert.Equal(t, "read_file", call.Name)
	assert.Equal(t, "main.go", call.Input["path"])
	assert.Equal(t, "false", call.Input["recursive"])
	assert.Equal(t, "checking...\n\nok", rest)
}

func TestBracketRecognizer_JSONBody(t *testing.T) {
	r := NewBracketRecognizer()
	buf := "[[TOOL_CALL: search]]\n```json\n{\"query\":\"golang\"}\n```\n[[END_TOOL_CALL]]"

	call, _, ok := r.Extract(buf)
	require.True(t, ok)
	assert.Equal(t, "search", call.Name)
	assert.Equal(t, "golang", call.Input["query"])
}

func TestExtractAll_MultipleCalls(t *testing.T) {
	r := NewXMLRecognizer()
	text := "<a><x>1</x></a>middle<b><y>2</y></b>tail"
	calls, remaining := ExtractAll(r, text)
	require.Len(t, calls, 2)
	assert.Equal(t, "a", calls[0].Name)
	assert.Equal(t, "b", calls[1].Name)
	assert.Equal(t, "middletail", remaining)
}

func TestForSuffix(t *testing.T) {
	assert.NotNil(t, ForSuffix("-xml-tools"))
	assert.NotNil(t, ForSuffix("-bracket-tools"))
	assert.Nil(t, ForSuffix(""))
}
