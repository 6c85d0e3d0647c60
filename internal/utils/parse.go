package utils

import (
	"os"

	"github.com/BurntSushi/toml"
)

// LoadTOMLFile decodes a TOML file into config. Decode errors are the
// caller's to handle; pkg/config falls back to section recovery.
func LoadTOMLFile(configPath string, config any) error {
	_, err := toml.DecodeFile(configPath, config)
	return err
}

// ParseTOMLWithRecovery re-reads a file whose typed decode failed into
// a plain map. A wrong value type breaks the struct decode but not the
// map decode, so intact sections stay salvageable.
func ParseTOMLWithRecovery(configPath string) (map[string]any, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	parsed := make(map[string]any)
	if _, err := toml.Decode(string(data), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// ExtractSection pulls one table out of recovered TOML data.
func ExtractSection(data map[string]any, sectionName string) (map[string]any, bool) {
	section, ok := data[sectionName].(map[string]any)
	return section, ok
}

// ExtractInt64 pulls an integer key out of a recovered section. TOML
// integers always decode as int64.
func ExtractInt64(data map[string]any, key string) (int, bool) {
	if val, ok := data[key].(int64); ok {
		return int(val), true
	}
	return 0, false
}

// ExtractBool pulls a boolean key out of a recovered section.
func ExtractBool(data map[string]any, key string) (bool, bool) {
	if val, ok := data[key].(bool); ok {
		return val, true
	}
	return false, false
}
