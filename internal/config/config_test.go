package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"HTTP_PORT", "API_BASE_URL", "STORE_BACKEND", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"CART_STORAGE_KEY", "SESSION_STORAGE_KEY", "REQUEST_TIMEOUT", "SHUTDOWN_TIMEOUT",
	"API_RATE_LIMIT", "API_BREAKER_FAILURES", "API_BREAKER_TIMEOUT", "LOG_LEVEL",
}

// clearEnv blanks every key for the test; empty values read as unset.
// t.Setenv restores the previous values on cleanup.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func missingFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingFile(t))

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:8080/api", cfg.APIBaseURL)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "ecomm_cart", cfg.CartStorageKey)
	assert.Equal(t, "user", cfg.SessionStorageKey)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, float64(20), cfg.APIRateLimit)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.BreakerTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("API_RATE_LIMIT", "2.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(missingFile(t))

	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.StoreBackend)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2.5, cfg.APIRateLimit)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_DB", "two")
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	t.Setenv("API_BREAKER_FAILURES", "-3")
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := Load(missingFile(t))

	require.NoError(t, err)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_UnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "sqlite")

	_, err := Load(missingFile(t))

	require.ErrorContains(t, err, "unknown STORE_BACKEND")
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	require.NoError(t, os.Unsetenv("CART_STORAGE_KEY"))
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT=7000\nCART_STORAGE_KEY=my_cart\n"), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.HTTPPort, "environment wins over .env")
	assert.Equal(t, "my_cart", cfg.CartStorageKey)
}
