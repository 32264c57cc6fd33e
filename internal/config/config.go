// Package config reads the storefront's settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type Config struct {
	HTTPPort          string
	APIBaseURL        string
	StoreBackend      string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	CartStorageKey    string
	SessionStorageKey string
	RequestTimeout    time.Duration
	ShutdownTimeout   time.Duration
	APIRateLimit      float64
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
	LogLevel          slog.Level
}

// Load reads the configuration. Variables already set in the environment
// win over those in the .env files; a missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		APIBaseURL:        getEnv("API_BASE_URL", "http://localhost:8080/api"),
		StoreBackend:      strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getInt("REDIS_DB", 0),
		CartStorageKey:    getEnv("CART_STORAGE_KEY", "ecomm_cart"),
		SessionStorageKey: getEnv("SESSION_STORAGE_KEY", "user"),
		RequestTimeout:    getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		APIRateLimit:      getFloat("API_RATE_LIMIT", 20),
		BreakerFailures:   uint32(getInt("API_BREAKER_FAILURES", 5)),
		BreakerTimeout:    getDuration("API_BREAKER_TIMEOUT", 30*time.Second),
		LogLevel:          getLevel("LOG_LEVEL", slog.LevelInfo),
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendRedis:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || f < 0 {
		return defaultValue
	}
	return f
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getLevel(key string, defaultValue slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv(key))); err != nil {
		return defaultValue
	}
	return level
}
