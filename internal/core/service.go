package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/ScanList/internal/blobstore"
	"github.com/JonMunkholm/ScanList/internal/config"
)

// Service is the entry point for the HTTP layer and the CLI. It owns the
// catalog store, the scan session and the event hub.
type Service struct {
	catalog *CatalogStore
	session *Session
	hub     *Hub
	gate    *LoadGate
	logger  *slog.Logger

	maxFileSize int64
	loadTimeout time.Duration
}

// NewService wires a catalog store over blobs and a session over decoder.
// The catalog starts empty; call Restore to load the persisted copy.
func NewService(blobs blobstore.Store, decoder Decoder, cfg *config.Config, opts ...Option) *Service {
	o := buildOptions(append([]Option{WithTimings(TimingsFromConfig(cfg.Session))}, opts...))

	catalog := NewCatalogStore(blobs, cfg.Store.Key, o.logger)
	return &Service{
		catalog:     catalog,
		session:     newSession(catalog, decoder, o),
		hub:         o.hub,
		gate:        NewLoadGate(cfg.Upload.MaxWait),
		logger:      o.logger.With("component", "service"),
		maxFileSize: cfg.Upload.MaxFileSize,
		loadTimeout: cfg.Upload.Timeout,
	}
}

func (s *Service) Session() *Session      { return s.session }
func (s *Service) Hub() *Hub              { return s.hub }
func (s *Service) Catalog() *CatalogStore { return s.catalog }

// Restore loads the persisted catalog. It reports whether scanning can be
// enabled.
func (s *Service) Restore(ctx context.Context) bool {
	c, ok := s.catalog.Restore(ctx)
	s.hub.Publish(Event{Type: EventCatalog, ItemCount: len(c)})
	return ok
}

// LoadCatalog reads a CSV catalog file and ingests it.
//
// File-level rejections (ErrNotCSV, ErrEmptyFile, ErrFileTooLarge,
// ErrLoadBusy) leave the current catalog untouched. Everything after
// tokenizing follows CatalogStore.IngestTable: a failed ingestion clears
// the catalog, and the session is stopped because nothing remains to scan.
func (s *Service) LoadCatalog(ctx context.Context, fileName string, r io.Reader) (IngestReport, error) {
	logger := s.logger.With("file", fileName, "client", ClientFromContext(ctx))

	if !strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return IngestReport{FileName: fileName}, ErrNotCSV
	}

	if err := s.gate.Acquire(ctx); err != nil {
		return IngestReport{FileName: fileName}, err
	}
	defer s.gate.Release()

	if s.loadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.loadTimeout)
		defer cancel()
	}

	counter := &countingReader{r: io.LimitReader(r, s.maxFileSize+1)}
	br := bufio.NewReader(counter)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			logger.Warn("catalog file is empty")
			return IngestReport{FileName: fileName}, ErrEmptyFile
		}
		return IngestReport{FileName: fileName}, fmt.Errorf("read catalog file: %w", err)
	}

	table, err := ParseCSV(br)
	if counter.n > s.maxFileSize {
		return IngestReport{FileName: fileName}, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, s.maxFileSize)
	}
	if err != nil {
		logger.Warn("catalog file unreadable", "error", err)
		table = &Table{Errors: []RowError{{Message: err.Error()}}}
	}

	report, err := s.catalog.IngestTable(ctx, table)
	report.FileName = fileName

	s.hub.Publish(Event{Type: EventCatalog, Outcome: report.Outcome, ItemCount: s.catalog.Len()})
	if err != nil {
		s.stopSession()
		return report, err
	}
	if report.PersistErr != nil {
		logger.Warn("catalog loaded but not persisted", "error", report.PersistErr)
	}
	return report, nil
}

// ClearCatalog empties the catalog and its persisted copy and stops a
// running scan.
func (s *Service) ClearCatalog(ctx context.Context) error {
	err := s.catalog.Clear(ctx)
	s.stopSession()
	s.hub.Publish(Event{Type: EventCatalog})
	return err
}

// Lookup finds barcode in the live catalog.
func (s *Service) Lookup(barcode string) (ProductRecord, bool) {
	return s.catalog.Lookup(barcode)
}

// CatalogInfo describes the loaded catalog.
type CatalogInfo struct {
	Loaded    bool   `json:"loaded"`
	ItemCount int    `json:"item_count"`
	Text      string `json:"text"`
}

// CatalogStatus returns the catalog summary line.
func (s *Service) CatalogStatus() CatalogInfo {
	n := s.catalog.Len()
	if n == 0 {
		return CatalogInfo{Text: "(No data loaded - Please upload CSV)"}
	}
	return CatalogInfo{Loaded: true, ItemCount: n, Text: fmt.Sprintf("(%d items loaded)", n)}
}

// WaitForLoads blocks until a running catalog load finishes.
func (s *Service) WaitForLoads(ctx context.Context) error {
	return s.gate.WaitForDrain(ctx)
}

// Close stops the session.
func (s *Service) Close() {
	s.session.Close()
}

func (s *Service) stopSession() {
	if err := s.session.Stop(); err == nil {
		s.logger.Info("scan stopped because the catalog was cleared")
	}
}

// Message is the user-facing summary of a successful load.
func (r IngestReport) Message() string {
	name := r.FileName
	if name == "" {
		name = "the file"
	}
	return fmt.Sprintf("Successfully loaded %d products from %s.", r.ItemCount, name)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
