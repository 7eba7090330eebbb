package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// PromptRewrite is one exact-string system-prompt replacement loaded from
// the optional prompt_rewrites.yaml side file, extending the adapter
// pipeline's built-in default-prompt rewrite table.
type PromptRewrite struct {
	Match       string `yaml:"match"`
	Replacement string `yaml:"replacement"`
}

// ToolSchemaRule strips the named JSON-Schema keywords from every tool's
// input_schema when the request's model contains ModelContains, extending
// the adapter pipeline's built-in default-schema cleanup table.
type ToolSchemaRule struct {
	ModelContains string   `yaml:"modelContains"`
	StripKeywords []string `yaml:"stripKeywords"`
}

// LoadPromptRewrites reads prompt_rewrites.yaml if present. A missing file
// yields an empty, non-error result.
func LoadPromptRewrites(path string) ([]PromptRewrite, error) {
	var rewrites []PromptRewrite
	if err := loadYAMLIfExists(path, &rewrites); err != nil {
		return nil, err
	}
	return rewrites, nil
}

// LoadToolSchemaRules reads tool_schema_rules.yaml if present. A missing
// file yields an empty, non-error result.
func LoadToolSchemaRules(path string) ([]ToolSchemaRule, error) {
	var rules []ToolSchemaRule
	if err := loadYAMLIfExists(path, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func loadYAMLIfExists(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}
