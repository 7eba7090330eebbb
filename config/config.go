// Package config loads the gateway's runtime configuration from the
// process environment, with an optional .env file for local development.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every environment-derived setting the gateway needs.
type Config struct {
	// OpenAIBaseURL is the base URL of the OpenAI-compatible upstream, e.g.
	// "https://api.groq.com/openai/v1". Required; there is no default
	// because guessing an upstream silently would be worse than failing
	// fast at startup.
	OpenAIBaseURL string
	// OpenAIAPIKey is forwarded as "Authorization: Bearer <key>" to the
	// upstream when the client did not supply its own x-api-key.
	OpenAIAPIKey string
	// HaikuModel is the upstream model id substituted whenever a client
	// requests one of Anthropic's Haiku aliases, letting cheap "routing"
	// calls (title generation, etc.) land on a cheap upstream model too.
	HaikuModel string

	// DisableDefaultAdapters turns off the built-in prompt/tool-schema
	// cleanup adapters process-wide; a directive's own
	// disableDefaultAdapters flag still wins per-request.
	DisableDefaultAdapters bool
	// DisableGroqMaxTokens turns off the Groq/Kimi max_tokens ceiling clamp.
	DisableGroqMaxTokens bool
	// GroqMaxTokensCeiling is the single ceiling applied to every model
	// matching the adapters package's Groq/Kimi substrings; it defaults to
	// defaultGroqMaxTokensCeiling.
	GroqMaxTokensCeiling int

	// Listen is the address http.Server listens on, e.g. ":8080".
	Listen string
	// ConnectionTimeout bounds dialing + TLS handshake to the upstream.
	ConnectionTimeout time.Duration
	// IdleConnectionTimeout bounds how long an idle keep-alive connection to
	// the upstream is kept open.
	IdleConnectionTimeout time.Duration
}

// Default values used when the corresponding environment variable is unset.
const (
	defaultListen                = "0.0.0.0:33332"
	defaultConnectionTimeout     = 10 * time.Second
	defaultIdleConnectionTimeout = 60 * time.Second
	defaultGroqMaxTokensCeiling  = 8192
	defaultHaikuModel            = "openai/gpt-4.1-mini"
)

// Load reads Config from the environment, first loading a .env file (if
// present) into the process environment without overriding variables that
// are already exported. OPENAI_BASE_URL is the only required variable.
func Load() (*Config, error) {
	loadEnvFile(".env")

	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("OPENAI_BASE_URL is required")
	}

	cfg := &Config{
		OpenAIBaseURL:           strings.TrimRight(baseURL, "/"),
		OpenAIAPIKey:            os.Getenv("OPENAI_API_KEY"),
		HaikuModel:              defaultString(os.Getenv("HAIKU_MODEL"), defaultHaikuModel),
		DisableDefaultAdapters:  parseBool(os.Getenv("DISABLE_DEFAULT_ADAPTERS")),
		DisableGroqMaxTokens:    parseBool(os.Getenv("DISABLE_GROQ_MAX_TOKENS")),
		GroqMaxTokensCeiling:    parseIntDefault(os.Getenv("GROQ_MAX_TOKENS_CEILING"), defaultGroqMaxTokensCeiling),
		Listen:                  defaultString(os.Getenv("LISTEN"), defaultListen),
		ConnectionTimeout:       parseDurationDefault(os.Getenv("CONNECTION_TIMEOUT"), defaultConnectionTimeout),
		IdleConnectionTimeout:   parseDurationDefault(os.Getenv("IDLE_CONNECTION_TIMEOUT"), defaultIdleConnectionTimeout),
	}

	return cfg, nil
}

// loadEnvFile reads simple KEY=VALUE lines from path into the process
// environment. A missing file is not an error; variables already present
// in the environment are never overwritten.
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes"
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func parseIntDefault(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseDurationDefault(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
