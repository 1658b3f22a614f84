// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables, optionally backed by a YAML
// file, applies sensible defaults and validates all settings on startup to fail
// fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Ingest   IngestConfig
	History  HistoryConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for websockets)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// IngestConfig holds upload parsing settings.
type IngestConfig struct {
	// Mode is "mock" to generate demo records for any accepted file, or
	// "parse" to read CSV and XLSX content (default: mock)
	Mode string `env:"INGEST_MODE" default:"mock"`

	// MaxFileSize is the maximum allowed file size in bytes (default: 50MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"52428800"`

	// FileDelay is the simulated processing time for uploads (default: 1s)
	FileDelay time.Duration `env:"INGEST_FILE_DELAY" default:"1s"`

	// DemoDelay is the simulated processing time for demo data (default: 500ms)
	DemoDelay time.Duration `env:"INGEST_DEMO_DELAY" default:"500ms"`

	// DemoCount is the number of generated records (default: 20)
	DemoCount int `env:"INGEST_DEMO_COUNT" default:"20"`

	// MaxConcurrent is the maximum number of parallel parses (default: 4)
	MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a parse slot (default: 10s)
	MaxWaitTime time.Duration `env:"INGEST_MAX_WAIT_TIME" default:"10s"`

	// Timeout is the maximum duration for a single ingest (default: 2m)
	Timeout time.Duration `env:"INGEST_TIMEOUT" default:"2m"`
}

// HistoryConfig holds upload history persistence settings.
type HistoryConfig struct {
	// Backend is one of memory, file, sqlite, postgres, redis (default: file)
	Backend string `env:"HISTORY_BACKEND" default:"file"`

	// Limit is the number of uploads kept (default: 10)
	Limit int `env:"HISTORY_LIMIT" default:"10"`

	// Path is the file backend location (default: ./data/udi-history.json)
	Path string `env:"HISTORY_PATH" default:"./data/udi-history.json"`

	// SQLitePath is the sqlite backend database file (default: ./data/udi.db)
	SQLitePath string `env:"HISTORY_SQLITE_PATH" default:"./data/udi.db"`

	// DatabaseURL is the PostgreSQL connection string for the postgres backend
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// RedisURL is the redis backend address in redis:// form
	RedisURL string `env:"REDIS_URL"`

	// Timeout bounds each load or save (default: 5s)
	Timeout time.Duration `env:"HISTORY_TIMEOUT" default:"5s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// UploadLimit is requests per minute for upload endpoints (default: 20)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects the JSON API with an X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics and records HTTP metrics (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`

	// Namespace prefixes every metric name (default: udi)
	Namespace string `env:"METRICS_NAMESPACE" default:"udi"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
