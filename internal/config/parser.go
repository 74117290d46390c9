package config

import "strings"

// Parse reads JSONC configuration content over base and validates the result.
//
// Syntax errors, unknown keys, and type mismatches are returned as errors;
// individually invalid values are reset to their defaults with a warning.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		cfg, warnings := Validate(base)
		return cfg, warnings, nil
	}
	return parseJSONC(content, base)
}
