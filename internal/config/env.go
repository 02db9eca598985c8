/*
PURPOSE:
  Environment layer of the configuration: .env loading, LOAD_ESTIMATOR_*
  overrides and API key resolution.

REQUIREMENTS:
  User-specified:
  - The credential is read from the environment only.

  Implementation-discovered:
  - Each provider has its own conventional variable (GEMINI_API_KEY,
    OPENAI_API_KEY, ...). LOAD_ESTIMATOR_API_KEY beats them, API_KEY is last.
  - Provider names are matched case-insensitively.

ARCHITECTURE INTEGRATION:
  - Called by: config.Load, internal/cli (ReloadAPIKey after --provider)
  - Dependencies: github.com/joho/godotenv

ERROR HANDLING:
  - A missing .env is fine. An unreadable one is an error.
  - Unparseable durations and integers are errors naming the variable.

IMPLEMENTATION RULES:
  - .env never overrides variables already set in the process.
  - lookup is injected so tests do not touch the real environment.

USAGE:
  cfg.applyEnv(os.LookupEnv)

RELATED FILES:
  - internal/config/config.go
*/

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LOAD_ESTIMATOR_"

// DotEnvFile is loaded from the working directory when present.
var DotEnvFile = ".env"

// credentialVars lists, per provider, the variables searched for the API key
// after LOAD_ESTIMATOR_API_KEY. API_KEY is the shared last resort.
var credentialVars = map[string][]string{
	"gemini": {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"openai": {"OPENAI_API_KEY"},
	"ollama": {"OLLAMA_API_KEY"},
}

// loadDotEnv populates the process environment from DotEnvFile.
// Variables that are already set are left untouched.
func loadDotEnv() error {
	err := godotenv.Load(DotEnvFile)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, name, v, err)
		}
		*dst = d
		return nil
	}

	str("PROVIDER", &c.Provider)
	str("MODEL", &c.Model)
	str("BASE_URL", &c.BaseURL)
	str("REGION", &c.Region)
	str("CURRENCY", &c.Currency)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("REDIS_ADDR", &c.Journal.Redis.Addr)
	str("REDIS_PASSWORD", &c.Journal.Redis.Password)
	str("ADDR", &c.Server.Addr)

	if err := dur("TIMEOUT", &c.Timeout); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "RATE_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT %q: %w", EnvPrefix, v, err)
		}
		c.Server.RateLimit = n
	}

	c.Provider = ProviderName(c.Provider)
	c.APIKey = resolveAPIKey(c.Provider, lookup)
	return nil
}

func resolveAPIKey(provider string, lookup lookupFunc) string {
	names := append([]string{EnvPrefix + "API_KEY"}, credentialVars[ProviderName(provider)]...)
	names = append(names, "API_KEY")
	for _, name := range names {
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
	}
	return ""
}

// ReloadAPIKey re-resolves the credential, e.g. after the provider changed
// through a CLI flag.
func (c *Config) ReloadAPIKey(lookup func(string) (string, bool)) {
	c.APIKey = resolveAPIKey(c.Provider, lookup)
}
