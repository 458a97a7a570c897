package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Store backend names accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		errs = append(errs, "server timeouts must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	errs = append(errs, c.Store.validate()...)

	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if c.Upload.Timeout <= 0 {
		errs = append(errs, "UPLOAD_TIMEOUT must be positive")
	}
	if c.Upload.MaxWait <= 0 {
		errs = append(errs, "UPLOAD_MAX_WAIT must be positive")
	}

	delays := []struct {
		name string
		d    time.Duration
	}{
		{"SESSION_FOUND_DELAY", c.Session.FoundDelay},
		{"SESSION_DUPLICATE_DELAY", c.Session.DuplicateDelay},
		{"SESSION_NOT_FOUND_DELAY", c.Session.NotFoundDelay},
		{"SESSION_ERROR_DELAY", c.Session.ErrorDelay},
		{"SESSION_MANUAL_DELAY", c.Session.ManualDelay},
	}
	for _, delay := range delays {
		if delay.d <= 0 {
			errs = append(errs, delay.name+" must be positive")
		}
	}
	if c.Session.EventBuffer <= 0 {
		errs = append(errs, "SESSION_EVENT_BUFFER must be positive")
	}

	if c.Rate.Enabled && (c.Rate.RequestsPerMinute <= 0 || c.Rate.Burst <= 0) {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE and RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Sprintf("METRICS_PATH (%q) must start with /", c.Metrics.Path))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// validate checks only the settings the selected backend reads.
func (s *StoreConfig) validate() []string {
	var errs []string

	if strings.TrimSpace(s.Key) == "" {
		errs = append(errs, "STORE_KEY must not be empty")
	}
	if s.MaxBlobSize < 0 {
		errs = append(errs, "STORE_MAX_BLOB_SIZE must be non-negative")
	}
	if s.Timeout <= 0 {
		errs = append(errs, "STORE_TIMEOUT must be positive")
	}

	switch strings.ToLower(s.Backend) {
	case BackendMemory:
	case BackendFile:
		if s.Dir == "" {
			errs = append(errs, "STORE_DIR is required for the file backend")
		}
	case BackendSQLite:
		if s.SQLitePath == "" {
			errs = append(errs, "STORE_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if s.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres backend")
		}
		if s.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
	case BackendRedis:
		if s.RedisURL == "" {
			errs = append(errs, "REDIS_URL is required for the redis backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORE_BACKEND (%q) must be one of: memory, file, sqlite, postgres, redis", s.Backend))
	}

	return errs
}

// String returns a safe string representation of the config for logging.
// Connection strings are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Store: {Backend: %q, Key: %q, Dir: %q, SQLitePath: %q, DatabaseURL: %s, RedisURL: %s, MaxBlobSize: %d}, ",
		c.Store.Backend, c.Store.Key, c.Store.Dir, c.Store.SQLitePath,
		maskURL(c.Store.DatabaseURL), maskURL(c.Store.RedisURL), c.Store.MaxBlobSize)
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d, Timeout: %s}, ", c.Upload.MaxFileSize, c.Upload.Timeout)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d, Burst: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.Burst)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: %d}, ", c.Security.RequireAPIKey, len(c.Security.APIKeys))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

// maskURL keeps the scheme and host of a connection string and hides the rest.
func maskURL(raw string) string {
	if raw == "" {
		return `""`
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "[MASKED]"
	}
	return u.Scheme + "://" + u.Host + "/[MASKED]"
}
