/*
PURPOSE:
  Defines the configuration structure and loading logic for Load Estimator.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Allow configuration of provider, model, region and transport timeout.
  - The API credential comes from the environment, never from a file.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs to support .env files and environment overrides (LOAD_ESTIMATOR_...).

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine, internal/server, internal/batch
  - Dependencies: gopkg.in/yaml.v3, github.com/joho/godotenv

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default files fall back to defaults silently.
  - A missing .env is not an error.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (e.g., 30s timeout, gemini provider).
  - Precedence: defaults < file < .env/environment < CLI flags.

USAGE:
  cfg, err := config.Load("load_estimator.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct, DefaultConfig() and applyEnv().

RELATED FILES:
  - internal/cli/root.go
  - internal/config/env.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for Load Estimator.
type Config struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"` // Empty means the provider's public endpoint
	Region   string        `yaml:"region"`
	Currency string        `yaml:"currency"`
	Timeout  time.Duration `yaml:"timeout"`

	// APIKey is only ever populated from the environment.
	APIKey string `yaml:"-"`

	Log     LogConfig     `yaml:"log"`
	Journal JournalConfig `yaml:"journal"`
	Batch   BatchConfig   `yaml:"batch"`
	Server  ServerConfig  `yaml:"server"`
}

// LogConfig controls the operator log.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// JournalConfig selects where estimate records are written.
// Every sink is optional; an empty value disables it.
type JournalConfig struct {
	JSONL string      `yaml:"jsonl"`
	CSV   string      `yaml:"csv"`
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig describes the Redis list journal.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
	MaxLen   int64  `yaml:"max_len"`
}

// BatchConfig tunes the batch runner.
type BatchConfig struct {
	OutputDir string        `yaml:"output_dir"`
	Pause     time.Duration `yaml:"pause"`
}

// ServerConfig tunes the HTTP server.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	RateLimit    int           `yaml:"rate_limit"`
	RateWindow   time.Duration `yaml:"rate_window"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DefaultModels maps each provider to the model used when none is configured.
var DefaultModels = map[string]string{
	"gemini": "gemini-3-flash-preview",
	"openai": "gpt-4o-mini",
	"ollama": "llama3.1",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: "gemini",
		Model:    DefaultModels["gemini"],
		Region:   "India",
		Currency: "INR",
		Timeout:  30 * time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Journal: JournalConfig{
			Redis: RedisConfig{
				Key:    "load-estimator:journal",
				MaxLen: 1000,
			},
		},
		Batch: BatchConfig{
			OutputDir: ".",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			RateLimit:    5,
			RateWindow:   time.Minute,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 45 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// DefaultFiles lists the config files searched when no path is given.
var DefaultFiles = []string{"load_estimator.yaml", "load-estimator.yaml"}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, defaults are used.
// Environment overrides are applied last in every case.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	// Filled from the provider in normalize() unless set explicitly.
	cfg.Model = ""

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		for _, name := range DefaultFiles {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				break
			}
		}
	}

	if path != "" {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.normalize()
	return cfg, nil
}

// SetProvider switches provider and, unless a model was chosen explicitly,
// resets the model to that provider's default.
func (c *Config) SetProvider(name string) {
	name = ProviderName(name)
	if c.Model == "" || c.Model == DefaultModels[c.Provider] {
		c.Model = DefaultModels[name]
	}
	c.Provider = name
}

// Redacted returns a copy safe for printing.
func (c *Config) Redacted() *Config {
	out := *c
	if out.APIKey != "" {
		out.APIKey = "****"
	}
	if out.Journal.Redis.Password != "" {
		out.Journal.Redis.Password = "****"
	}
	return &out
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ProviderName folds a provider name to the lowercase form used as a key
// by DefaultModels and the credential lookup.
func ProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Config) normalize() {
	c.Provider = ProviderName(c.Provider)
	if c.Model == "" {
		c.Model = DefaultModels[c.Provider]
	}
	if c.Region == "" {
		c.Region = "India"
	}
	if c.Currency == "" {
		c.Currency = "INR"
	}
}
