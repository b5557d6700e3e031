// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	StorageMemory     = "memory"
	StoragePersistent = "persistent"
)

// Config is the server configuration
type Config struct {
	StorageType string `env:"REALM_STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REALM_REDIS_URL" envDefault:"redis://localhost:6379"`
	SQLitePath  string `env:"REALM_SQLITE_PATH" envDefault:"data/realmledger.db"`
	HTTPPort    int    `env:"REALM_HTTP_PORT" envDefault:"8080"`

	// CredentialKey is a base64 ed25519 seed or private key. A random key
	// is generated at startup when empty.
	CredentialKey string        `env:"REALM_CREDENTIAL_KEY"`
	CredentialTTL time.Duration `env:"REALM_CREDENTIAL_TTL" envDefault:"1h"`
	SessionTTL    time.Duration `env:"REALM_SESSION_TTL" envDefault:"24h"`

	LogLevel string `env:"REALM_LOG_LEVEL" envDefault:"info"`
}

// Load parses the process environment
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFrom parses the given variables instead of the process environment
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory, StoragePersistent:
	default:
		return fmt.Errorf("invalid REALM_STORAGE_TYPE %q: must be %q or %q", c.StorageType, StorageMemory, StoragePersistent)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid REALM_HTTP_PORT %d", c.HTTPPort)
	}
	if c.CredentialTTL <= 0 {
		return fmt.Errorf("REALM_CREDENTIAL_TTL must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("REALM_SESSION_TTL must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Addr returns the HTTP listen address
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// ParseLevel maps a level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid REALM_LOG_LEVEL %q", name)
	}
	return level, nil
}
