// Package config loads configuration from environment variables.
package config

import (
	"os"
	"strconv"
)

// Config holds all server configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Database (optional — empty disables the document store and the
	// server runs filesystem-only)
	DatabaseURL string

	// Fixture tree
	DataDir      string
	SkipFixtures bool

	// Store mirror
	MirrorOnStart bool

	// HTTP
	CORSAllowedOrigin string

	// Search
	SearchDefaultLimit int
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:         envOr("LISTEN_ADDR", ":8080"),
		MetricsAddr:        envOr("METRICS_ADDR", ":9090"),
		LogLevel:           envOr("LOG_LEVEL", "info"),
		LogFormat:          envOr("LOG_FORMAT", "json"),
		DatabaseURL:        envOr("DATABASE_URL", ""),
		DataDir:            envOr("DATA_DIR", "./data/reports"),
		SkipFixtures:       envBool("SKIP_FIXTURES", false),
		MirrorOnStart:      envBool("MIRROR_ON_START", true),
		CORSAllowedOrigin:  envOr("CORS_ALLOWED_ORIGIN", "*"),
		SearchDefaultLimit: envInt("SEARCH_DEFAULT_LIMIT", 50),
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}
