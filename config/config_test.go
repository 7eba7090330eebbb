package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_BASE_URL", "OPENAI_API_KEY", "HAIKU_MODEL",
		"DISABLE_DEFAULT_ADAPTERS", "DISABLE_GROQ_MAX_TOKENS",
		"GROQ_MAX_TOKENS_CEILING", "LISTEN", "CONNECTION_TIMEOUT",
		"IDLE_CONNECTION_TIMEOUT",
	} {
		os.Unsetenv(k)
	}
}

func TestLoad_RequiresOpenAIBaseURL(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	os.Setenv("OPENAI_BASE_URL", "https://api.groq.com/openai/v1/")
	defer clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, defaultConnectionTimeout, cfg.ConnectionTimeout)
	assert.Equal(t, defaultIdleConnectionTimeout, cfg.IdleConnectionTimeout)
	assert.Equal(t, defaultGroqMaxTokensCeiling, cfg.GroqMaxTokensCeiling)
	assert.False(t, cfg.DisableDefaultAdapters)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("OPENAI_BASE_URL", "https://example.test/v1")
	os.Setenv("LISTEN", ":9090")
	os.Setenv("DISABLE_GROQ_MAX_TOKENS", "true")
	os.Setenv("CONNECTION_TIMEOUT", "5s")
	defer clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.True(t, cfg.DisableGroqMaxTokens)
	assert.Equal(t, 5*time.Second, cfg.ConnectionTimeout)
}

func TestLoadPromptRewrites_MissingFileIsNotError(t *testing.T) {
	rewrites, err := LoadPromptRewrites("does-not-exist.yaml")
	require.NoError(t, err)
	assert.Empty(t, rewrites)
}
