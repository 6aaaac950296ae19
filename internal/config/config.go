// Package config loads and validates tool configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for go-cpg.
type Config struct {
	// Language selects the default grammar for ambiguous files, "cpp" or "c".
	Language string `yaml:"language" env:"GCPG_LANGUAGE"`

	// ResolveAliases resolves typedef aliases during type canonicalization.
	ResolveAliases bool `yaml:"resolve_aliases" env:"GCPG_RESOLVE_ALIASES"`

	// CacheEnabled turns the lowered-unit disk cache on.
	CacheEnabled bool `yaml:"cache_enabled" env:"GCPG_CACHE_ENABLED"`

	// CacheDir is where the disk cache lives.
	CacheDir string `yaml:"cache_dir" env:"GCPG_CACHE_DIR"`

	// CacheMaxEntries bounds the number of cached units.
	CacheMaxEntries int `yaml:"cache_max_entries" env:"GCPG_CACHE_MAX_ENTRIES"`

	// DBPath is the default SQLite output path for `gcpg export`.
	DBPath string `yaml:"db_path" env:"GCPG_DB_PATH"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose" env:"GCPG_VERBOSE"`

	// JSONLogs switches the logger to JSON output.
	JSONLogs bool `yaml:"json_logs" env:"GCPG_JSON_LOGS"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Language:        "cpp",
		ResolveAliases:  true,
		CacheEnabled:    true,
		CacheDir:        ".gcpg/cache",
		CacheMaxEntries: 256,
		DBPath:          "cpg.db",
		Verbose:         false,
		JSONLogs:        false,
	}
}

// globalConfigFilePath returns the global config file path (~/.gcpg/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gcpg/config.yaml"
	}
	return filepath.Join(home, ".gcpg", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.gcpg/config.yaml)
func projectConfigFilePath() string {
	return ".gcpg/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.gcpg/config.yaml)
// 3. Global config (~/.gcpg/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GCPG_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("GCPG_RESOLVE_ALIASES"); v != "" {
		cfg.ResolveAliases = isTruthy(v)
	}
	if v := os.Getenv("GCPG_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = isTruthy(v)
	}
	if v := os.Getenv("GCPG_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("GCPG_CACHE_MAX_ENTRIES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheMaxEntries = i
		}
	}
	if v := os.Getenv("GCPG_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("GCPG_VERBOSE"); v != "" {
		cfg.Verbose = isTruthy(v)
	}
	if v := os.Getenv("GCPG_JSON_LOGS"); v != "" {
		cfg.JSONLogs = isTruthy(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	switch c.Language {
	case "c", "cpp":
		// Valid
	default:
		return fmt.Errorf("invalid language: %s (must be 'c' or 'cpp')", c.Language)
	}

	if c.CacheEnabled && c.CacheDir == "" {
		return fmt.Errorf("cache_dir is required when cache_enabled is true")
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("cache_max_entries must be non-negative")
	}

	return nil
}

func isTruthy(v string) bool {
	return v == "true" || v == "1" || v == "yes"
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
