package directive

import (
	"testing"

	"claude-gateway/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsedDirective(globalTemp, ruleTemp float64) *types.ProxyDirective {
	return &types.ProxyDirective{
		Global: types.DirectiveApply{Temperature: &globalTemp},
		Rules: []types.DirectiveRule{
			{
				If:    types.DirectiveCondition{ModelContains: "gpt-4o"},
				Apply: types.DirectiveApply{Temperature: &ruleTemp},
			},
		},
	}
}

func TestExtract_NoDirective(t *testing.T) {
	res, err := Extract("you are a helpful assistant")
	require.NoError(t, err)
	assert.Nil(t, res.Directive)
	assert.Equal(t, "you are a helpful assistant", res.System)
}

func TestExtract_StripsDelimitedRegionAndNewline(t *testing.T) {
	system := "be nice\n--- PROXY DIRECTIVE ---\n{\"global\":{\"temperature\":0.1}}\n--- END DIRECTIVE ---\nbe terse"
	res, err := Extract(system)
	require.NoError(t, err)
	require.NotNil(t, res.Directive)
	assert.NotContains(t, res.System, "PROXY DIRECTIVE")
	assert.NotContains(t, res.System, "END DIRECTIVE")
	assert.Equal(t, "be nice\nbe terse", res.System)
	require.NotNil(t, res.Directive.Global.Temperature)
	assert.Equal(t, 0.1, *res.Directive.Global.Temperature)
}

func TestExtract_MalformedJSONIsDirectiveError(t *testing.T) {
	system := "--- PROXY DIRECTIVE ---\nnot json\n--- END DIRECTIVE ---"
	_, err := Extract(system)
	require.Error(t, err)
}

func TestResolve_RuleOverGlobalOverRequest(t *testing.T) {
	globalTemp := 0.2
	ruleTemp := 0.9
	d := parsedDirective(globalTemp, ruleTemp)
	resolved := Resolve(d, "gpt-4o-mini")
	require.NotNil(t, resolved.Apply.Temperature)
	assert.Equal(t, ruleTemp, *resolved.Apply.Temperature)
}

func TestResolve_NoMatchingRuleUsesGlobal(t *testing.T) {
	globalTemp := 0.2
	ruleTemp := 0.9
	d := parsedDirective(globalTemp, ruleTemp)
	resolved := Resolve(d, "claude-3-5-sonnet")
	require.NotNil(t, resolved.Apply.Temperature)
	assert.Equal(t, globalTemp, *resolved.Apply.Temperature)
}
