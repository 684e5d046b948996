package config

import (
	"os"
	"strconv"
)

// Auth modes
const (
	AuthModeNone    = "none"
	AuthModeGateway = "gateway"
	AuthModeJWT     = "jwt"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Stream state storage. Empty keeps cursors in memory
	DatabaseURL string

	// Observability
	SentryDSN        string
	MetricsNamespace string

	// Auth mode
	// - "none": no auth (self-hosted, local dev)
	// - "gateway": trust X-User-* headers from an upstream gateway
	// - "jwt": validate bearer tokens signed with JWTSecret
	AuthMode  string
	JWTSecret string

	// Rendering and request limits
	MIDITempoBPM float64
	MaxSegments  int
}

func Load() *Config {
	return &Config{
		Environment:      getEnv("ENVIRONMENT", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "Talea/API"),
		AuthMode:         getEnv("AUTH_MODE", AuthModeNone),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		MIDITempoBPM:     getEnvFloat("MIDI_TEMPO_BPM", 120),
		MaxSegments:      getEnvInt("MAX_SEGMENTS", 256),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

// IsGatewayMode returns true if running behind an auth gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == AuthModeGateway
}

// IsJWTMode returns true if bearer tokens are validated locally
func (c *Config) IsJWTMode() bool {
	return c.AuthMode == AuthModeJWT
}

// UsesDatabase reports whether stream state is kept in Postgres
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
