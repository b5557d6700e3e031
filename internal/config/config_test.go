package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, time.Hour, cfg.CredentialTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.CredentialKey)
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"REALM_STORAGE_TYPE":   "persistent",
		"REALM_REDIS_URL":      "redis://cache:6380/1",
		"REALM_SQLITE_PATH":    "/var/lib/realm.db",
		"REALM_HTTP_PORT":      "9000",
		"REALM_CREDENTIAL_TTL": "15m",
		"REALM_SESSION_TTL":    "2h",
		"REALM_LOG_LEVEL":      "debug",
	})
	require.NoError(t, err)

	assert.Equal(t, StoragePersistent, cfg.StorageType)
	assert.Equal(t, "redis://cache:6380/1", cfg.RedisURL)
	assert.Equal(t, "/var/lib/realm.db", cfg.SQLitePath)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, 15*time.Minute, cfg.CredentialTTL)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}

func TestLoadFromRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"storage type":   {"REALM_STORAGE_TYPE": "postgres"},
		"port":           {"REALM_HTTP_PORT": "0"},
		"port not int":   {"REALM_HTTP_PORT": "eighty"},
		"credential ttl": {"REALM_CREDENTIAL_TTL": "0s"},
		"session ttl":    {"REALM_SESSION_TTL": "-1h"},
		"log level":      {"REALM_LOG_LEVEL": "loud"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(vars)
			assert.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("ERROR")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, level)
}
