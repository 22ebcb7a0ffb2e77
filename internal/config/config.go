// Package config centralises configuration parsing for the tracker.
package config

import (
	"os"
	"time"
)

// Config captures runtime configuration values.
type Config struct {
	HTTPAddress   string
	RemoteBaseURL string // empty means the in-process remote store
	RemoteTimeout time.Duration
	CachePath     string
	JWTSecret     string
	JWTIssuer     string
	LogLevel      string
}

// Load reads environment variables into Config, applying sensible defaults for
// local dev.
func Load() Config {
	return Config{
		HTTPAddress:   getEnv("HTTP_ADDRESS", ":8080"),
		RemoteBaseURL: getEnv("REMOTE_BASE_URL", ""),
		RemoteTimeout: getDurationEnv("REMOTE_TIMEOUT", 10*time.Second),
		CachePath:     getEnv("CACHE_PATH", ".timetracker/cache.db"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:     getEnv("JWT_ISSUER", "timetracker.identity"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
