// Package config provides configuration for the generation service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database (telemetry only; conversation history stays in memory)
	DatabaseURL string

	// Upstream model settings
	GeminiBaseURL string
	GeminiAPIKey  string
	GeminiModel   string

	// Timeouts
	GenerateTimeout time.Duration

	// Session eviction
	SessionTTL time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:     getEnv("DATABASE_URL", "file:docforge.db?cache=shared&mode=rwc"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GenerateTimeout: time.Duration(getEnvInt("GENERATE_TIMEOUT_MS", 300000)) * time.Millisecond,
		SessionTTL:      time.Duration(getEnvInt("SESSION_TTL_MS", 3600000)) * time.Millisecond,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
