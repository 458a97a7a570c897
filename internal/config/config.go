// Package config provides centralized configuration management for ScanList.
// Settings come from environment variables (optionally seeded from a .env
// file by the commands) with defaults declared in struct tags, and are
// validated on startup so misconfiguration fails fast.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Upload   UploadConfig
	Session  SessionConfig
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
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is 0 by default so the event stream is not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 15s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// RequestTimeout is the middleware timeout for API requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects and configures the blob store that keeps the catalog
// between sessions.
type StoreConfig struct {
	// Backend is one of: memory, file, sqlite, postgres, redis (default: file)
	Backend string `env:"STORE_BACKEND" default:"file"`

	// Key is the fixed key the catalog is stored under.
	Key string `env:"STORE_KEY" default:"barcodeScannerProductData"`

	// Dir is the directory used by the file backend (default: data)
	Dir string `env:"STORE_DIR" default:"data"`

	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `env:"STORE_SQLITE_PATH" default:"data/scanlist.db"`

	// DatabaseURL is the PostgreSQL connection string (postgres backend only).
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns caps the PostgreSQL pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// RedisURL is the redis:// connection string (redis backend only).
	RedisURL string `env:"REDIS_URL"`

	// RedisPrefix is prepended to every key written to Redis.
	RedisPrefix string `env:"REDIS_KEY_PREFIX" default:"scanlist:"`

	// MaxBlobSize is the storage quota for one value in bytes; 0 disables it (default: 5MB)
	MaxBlobSize int `env:"STORE_MAX_BLOB_SIZE" default:"5242880"`

	// Timeout bounds each store operation (default: 5s)
	Timeout time.Duration `env:"STORE_TIMEOUT" default:"5s"`
}

// UploadConfig holds catalog file upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted CSV size in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// Timeout is the maximum duration for one ingestion (default: 1m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"1m"`

	// MaxWait is how long a load waits for a running load to finish (default: 10s)
	MaxWait time.Duration `env:"UPLOAD_MAX_WAIT" default:"10s"`
}

// SessionConfig holds scan session timings. Each delay is how long a
// transient status stays up before reverting to the idle prompt.
type SessionConfig struct {
	FoundDelay     time.Duration `env:"SESSION_FOUND_DELAY" default:"2s"`
	DuplicateDelay time.Duration `env:"SESSION_DUPLICATE_DELAY" default:"2s"`
	NotFoundDelay  time.Duration `env:"SESSION_NOT_FOUND_DELAY" default:"2s"`
	ErrorDelay     time.Duration `env:"SESSION_ERROR_DELAY" default:"3s"`
	ManualDelay    time.Duration `env:"SESSION_MANUAL_DELAY" default:"3s"`

	// EventBuffer is the queue size for decoder events pushed over HTTP (default: 32)
	EventBuffer int `env:"SESSION_EVENT_BUFFER" default:"32"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 600)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"600"`

	// Burst is how many requests may arrive at once (default: 60)
	Burst int `env:"RATE_LIMIT_BURST" default:"60"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys.
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// TrustedProxies lists CIDRs whose X-Real-IP / X-Forwarded-For headers
	// are believed. Empty means client addresses are taken from the socket.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" default:"true"`
	Path    string `env:"METRICS_PATH" default:"/metrics"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
