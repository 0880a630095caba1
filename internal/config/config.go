// Package config loads Helix configuration from YAML with environment
// variable overrides. A missing config file yields the defaults, so the
// binary runs with nothing but an API key in the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Helix configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	LLM     LLMConfig     `yaml:"llm"`
	Search  SearchConfig  `yaml:"search"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Prompts PromptsConfig `yaml:"prompts"`
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the model capability.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// SearchConfig configures the professional search integration.
type SearchConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Port            int    `yaml:"port"`
	AllowedOrigin   string `yaml:"allowed_origin"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// PromptsConfig configures phrasing template overrides.
type PromptsConfig struct {
	// TemplatesPath points at an optional YAML file of follow-up phrasing
	// templates keyed by operation family. When set, the file is watched
	// and hot-reloaded.
	TemplatesPath string `yaml:"templates_path"`
}

// LoggingConfig configures categorized debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "Helix",
		Version: "1.0.0",

		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
			BaseURL:  "https://api.openai.com/v1",
			Timeout:  "120s",
		},

		Search: SearchConfig{
			BaseURL: "https://serpapi.com/search",
			Timeout: "30s",
		},

		Storage: StorageConfig{
			DatabasePath: filepath.Join(".helix", "helix.db"),
		},

		Server: ServerConfig{
			Port:            8000,
			AllowedOrigin:   "*",
			ShutdownTimeout: "10s",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config location under the workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".helix", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file returns the
// defaults; environment variables are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
// API keys are checked in priority order; the last match wins the
// provider slot, mirroring how the key was exported.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "openai"
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if key := os.Getenv("SERPAPI_KEY"); key != "" {
		c.Search.APIKey = key
	}
	if model := os.Getenv("HELIX_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if path := os.Getenv("HELIX_DB_PATH"); path != "" {
		c.Storage.DatabasePath = path
	}
	if port := os.Getenv("PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
}

// Validate checks invariants that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.LLM.Provider != "openai" && c.LLM.Provider != "gemini" {
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("no API key configured (set OPENAI_API_KEY or GEMINI_API_KEY)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if _, err := c.LLMTimeout(); err != nil {
		return fmt.Errorf("invalid llm timeout: %w", err)
	}
	return nil
}

// LLMTimeout parses the configured model-call timeout.
func (c *Config) LLMTimeout() (time.Duration, error) {
	if c.LLM.Timeout == "" {
		return 120 * time.Second, nil
	}
	return time.ParseDuration(c.LLM.Timeout)
}

// SearchTimeout parses the configured search-call timeout.
func (c *Config) SearchTimeout() (time.Duration, error) {
	if c.Search.Timeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(c.Search.Timeout)
}

// ShutdownTimeout parses the configured HTTP shutdown grace period.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	if c.Server.ShutdownTimeout == "" {
		return 10 * time.Second, nil
	}
	return time.ParseDuration(c.Server.ShutdownTimeout)
}
