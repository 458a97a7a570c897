package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/ScanList/internal/blobstore"
	"github.com/JonMunkholm/ScanList/internal/logging"
)

const testKey = "barcodeScannerProductData"

// manualClock fires timers only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// Advance moves time forward and runs due timers in deadline order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

// fakeDecoder hands out a fresh buffered channel per run.
type fakeDecoder struct {
	mu       sync.Mutex
	startErr error
	events   chan DecodeEvent
	ctx      context.Context
	starts   int
}

func (d *fakeDecoder) Start(ctx context.Context) (<-chan DecodeEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.starts++
	if d.startErr != nil {
		return nil, d.startErr
	}
	d.events = make(chan DecodeEvent, 16)
	d.ctx = ctx
	return d.events, nil
}

func (d *fakeDecoder) send(ev DecodeEvent) {
	d.mu.Lock()
	ch := d.events
	d.mu.Unlock()
	ch <- ev
}

func (d *fakeDecoder) runContext() context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctx
}

// recordingEffects counts side effects.
type recordingEffects struct {
	mu         sync.Mutex
	haptics    int
	highlights []string
}

func (e *recordingEffects) Haptic() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.haptics++
}

func (e *recordingEffects) Highlight(barcode string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.highlights = append(e.highlights, barcode)
}

func (e *recordingEffects) counts() (int, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.haptics, append([]string(nil), e.highlights...)
}

// failingStore wraps a store and fails selected operations.
type failingStore struct {
	blobstore.Store
	getErr error
	setErr error
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

var errBackend = errors.New("backend unavailable")

// fullHeaders is the required column set.
var fullHeaders = []string{ColBarcode, ColProductName, ColUOM, ColSellPrice}

func row(barcode, name, uom, price string) map[string]string {
	return map[string]string{
		ColBarcode:     barcode,
		ColProductName: name,
		ColUOM:         uom,
		ColSellPrice:   price,
	}
}

func newTestStore(t *testing.T, blobs blobstore.Store) *CatalogStore {
	t.Helper()
	if blobs == nil {
		blobs = blobstore.NewMemory()
	}
	return NewCatalogStore(blobs, testKey, logging.Discard())
}

// loadedStore returns a store holding the given barcodes named after themselves.
func loadedStore(t *testing.T, barcodes ...string) *CatalogStore {
	t.Helper()
	s := newTestStore(t, nil)
	rows := make([]map[string]string, 0, len(barcodes))
	for _, b := range barcodes {
		rows = append(rows, row(b, "Item "+b, "pcs", "1.00"))
	}
	if _, err := s.Ingest(context.Background(), fullHeaders, rows); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	return s
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}
