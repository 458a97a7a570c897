// Package blobstore is the key/value persistence behind the catalog. A
// Store holds opaque byte blobs under string keys; the catalog lives under
// a single fixed key. Backends: in-process memory, a JSON file per key,
// SQLite, PostgreSQL and Redis.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/ScanList/internal/config"
)

var (
	// ErrNotFound is returned by Get when no value exists for the key.
	ErrNotFound = errors.New("blobstore: key not found")

	// ErrTooLarge is returned by Set when the value exceeds the storage quota.
	ErrTooLarge = errors.New("blobstore: quota exceeded")
)

// Store is a minimal byte-oriented key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by cfg.Backend. Every returned store
// enforces cfg.MaxBlobSize when it is positive.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)

	switch strings.ToLower(cfg.Backend) {
	case config.BackendMemory:
		s = NewMemory()
	case config.BackendFile:
		s, err = NewFile(cfg.Dir)
	case config.BackendSQLite:
		s, err = OpenSQLite(ctx, cfg.SQLitePath)
	case config.BackendPostgres:
		s, err = OpenPostgres(ctx, cfg.DatabaseURL, int32(cfg.MaxConns))
	case config.BackendRedis:
		s, err = OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("blobstore: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		s = WithTimeout(s, cfg.Timeout)
	}
	if cfg.MaxBlobSize > 0 {
		s = Limit(s, cfg.MaxBlobSize)
	}
	return s, nil
}

// limited rejects writes above a byte quota.
type limited struct {
	Store
	max int
}

// Limit wraps s so that Set fails with ErrTooLarge for values larger than
// max bytes. The stored value is left untouched on rejection.
func Limit(s Store, max int) Store {
	return &limited{Store: s, max: max}
}

func (l *limited) Set(ctx context.Context, key string, value []byte) error {
	if len(value) > l.max {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(value), l.max)
	}
	return l.Store.Set(ctx, key, value)
}

// timed bounds every call with a deadline.
type timed struct {
	Store
	d time.Duration
}

// WithTimeout wraps s so each operation runs under a deadline of d.
func WithTimeout(s Store, d time.Duration) Store {
	return &timed{Store: s, d: d}
}

func (t *timed) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.Store.Get(ctx, key)
}

func (t *timed) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.Store.Set(ctx, key, value)
}

func (t *timed) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()
	return t.Store.Delete(ctx, key)
}
