package core

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/JonMunkholm/ScanList/internal/blobstore"
)

// CatalogStore owns the live catalog and its persisted copy under one
// fixed blob store key. The live catalog is replaced wholesale; readers
// always see a complete snapshot.
type CatalogStore struct {
	blobs  blobstore.Store
	key    string
	logger *slog.Logger

	mu    sync.RWMutex
	items Catalog
}

// NewCatalogStore returns an empty store backed by blobs under key.
func NewCatalogStore(blobs blobstore.Store, key string, logger *slog.Logger) *CatalogStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogStore{
		blobs:  blobs,
		key:    key,
		logger: logger.With("component", "catalog"),
		items:  Catalog{},
	}
}

// Restore loads the persisted catalog into memory. It returns the catalog
// and true when a non-empty one was found. A missing or corrupt value
// yields false; corrupt data is deleted. A backend read failure also yields
// false but leaves the stored value alone.
func (s *CatalogStore) Restore(ctx context.Context) (Catalog, bool) {
	data, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, blobstore.ErrNotFound) {
			s.logger.Warn("catalog restore failed", "key", s.key, "error", err)
			return nil, false
		}
		s.logger.Debug("no persisted catalog", "key", s.key)
		s.drop(ctx)
		return nil, false
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		s.logger.Warn("persisted catalog is corrupt, deleting", "key", s.key, "error", err)
		s.drop(ctx)
		return nil, false
	}

	// Entries with blank barcodes cannot be scanned.
	delete(c, "")

	s.set(c)
	if len(c) == 0 {
		s.logger.Info("persisted catalog is empty", "key", s.key)
		return nil, false
	}

	s.logger.Info("catalog restored", "key", s.key, "item_count", len(c))
	return c.Clone(), true
}

// Save writes c to the blob store. An empty catalog is never written so a
// transient empty state cannot overwrite good persisted data.
func (s *CatalogStore) Save(ctx context.Context, c Catalog) error {
	if len(c) == 0 {
		s.logger.Warn("skipping save of empty catalog", "key", s.key)
		return nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return &PersistError{Op: "encode", Key: s.key, Err: err}
	}
	if err := s.blobs.Set(ctx, s.key, data); err != nil {
		return &PersistError{Op: "set", Key: s.key, Err: err}
	}

	s.logger.Debug("catalog saved", "key", s.key, "item_count", len(c), "bytes", len(data))
	return nil
}

// Replace swaps in c as the live catalog and persists it. On a persistence
// failure the stored key is dropped and the error returned; the live
// catalog keeps c either way.
func (s *CatalogStore) Replace(ctx context.Context, c Catalog) error {
	s.set(c.Clone())

	if err := s.Save(ctx, c); err != nil {
		s.logger.Error("catalog save failed, dropping persisted copy", "key", s.key, "error", err)
		s.drop(ctx)
		return err
	}
	return nil
}

// Clear empties the live catalog and deletes the persisted copy.
func (s *CatalogStore) Clear(ctx context.Context) error {
	s.set(Catalog{})
	if err := s.blobs.Delete(ctx, s.key); err != nil {
		return &PersistError{Op: "delete", Key: s.key, Err: err}
	}
	return nil
}

// Lookup returns the record for barcode. The match is exact; no trimming or
// normalization is applied here.
func (s *CatalogStore) Lookup(barcode string) (ProductRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[barcode]
	return rec, ok
}

// Len returns the number of live entries.
func (s *CatalogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot returns a copy of the live catalog.
func (s *CatalogStore) Snapshot() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Clone()
}

func (s *CatalogStore) set(c Catalog) {
	if c == nil {
		c = Catalog{}
	}
	s.mu.Lock()
	s.items = c
	s.mu.Unlock()
}

// drop deletes the persisted key, logging rather than returning failures.
func (s *CatalogStore) drop(ctx context.Context) {
	if err := s.blobs.Delete(ctx, s.key); err != nil {
		s.logger.Warn("delete persisted catalog failed", "key", s.key, "error", err)
	}
}
