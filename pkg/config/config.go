/*
Package config manages TOML config for kanatype services.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/kanatype/kanatype/internal/utils"
)

// Config holds the entire config structure
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Dispatch DispatchConfig `toml:"dispatch"`
	CLI      CliConfig      `toml:"cli"`
}

// EngineConfig has matcher related options.
type EngineConfig struct {
	MatchCacheSize   int `toml:"match_cache_size"`
	DisplayCacheSize int `toml:"display_cache_size"`
}

// DispatchConfig holds worker pool options.
type DispatchConfig struct {
	// Workers is the pool size; 0 selects hardware concurrency minus one.
	Workers       int `toml:"workers"`
	PingTimeoutMs int `toml:"ping_timeout_ms"`
	ScoreMemoSize int `toml:"score_memo_size"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	Phrases    int  `toml:"phrases"`
	ShowRomaji bool `toml:"show_romaji"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/kanatype
// 2. ~/Library/Application Support/kanatype (macOS)
// 3. Current working dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return os.Getwd()
	}
	primaryPath := filepath.Join(homeDir, ".config", "kanatype")
	if err := utils.EnsureDir(primaryPath); err == nil {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "kanatype")
	if err := utils.EnsureDir(macOSPath); err == nil {
		return macOSPath, nil
	}
	return os.Getwd()
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/kanatype/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MatchCacheSize:   1000,
			DisplayCacheSize: 500,
		},
		Dispatch: DispatchConfig{
			Workers:       0,
			PingTimeoutMs: 1000,
			ScoreMemoSize: 500,
		},
		CLI: CliConfig{
			Phrases:    10,
			ShowRomaji: true,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config from %s: %v. Using built-in defaults...", configPath, err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse attempts to salvage whatever valid sections a broken
// TOML file still carries.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if engineSection, ok := utils.ExtractSection(tempConfig, "engine"); ok {
		extractEngineConfig(engineSection, &config.Engine)
	}
	if dispatchSection, ok := utils.ExtractSection(tempConfig, "dispatch"); ok {
		extractDispatchConfig(dispatchSection, &config.Dispatch)
	}
	if cliSection, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(cliSection, &config.CLI)
	}
	return config, nil
}

func extractEngineConfig(data map[string]any, engine *EngineConfig) {
	if val, ok := utils.ExtractInt64(data, "match_cache_size"); ok {
		engine.MatchCacheSize = val
	}
	if val, ok := utils.ExtractInt64(data, "display_cache_size"); ok {
		engine.DisplayCacheSize = val
	}
}

func extractDispatchConfig(data map[string]any, dispatch *DispatchConfig) {
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		dispatch.Workers = val
	}
	if val, ok := utils.ExtractInt64(data, "ping_timeout_ms"); ok {
		dispatch.PingTimeoutMs = val
	}
	if val, ok := utils.ExtractInt64(data, "score_memo_size"); ok {
		dispatch.ScoreMemoSize = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "phrases"); ok {
		cli.Phrases = val
	}
	if val, ok := utils.ExtractBool(data, "show_romaji"); ok {
		cli.ShowRomaji = val
	}
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}
