package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ScanList/internal/config"
)

// SessionState is the scan state machine's state.
type SessionState string

const (
	StateIdle   SessionState = "idle"
	StateActive SessionState = "active"
)

// Timings sets how long each transient status stays up.
type Timings struct {
	Found     time.Duration
	Duplicate time.Duration
	NotFound  time.Duration
	Error     time.Duration
	Manual    time.Duration
}

// DefaultTimings matches the stock configuration.
var DefaultTimings = Timings{
	Found:     2 * time.Second,
	Duplicate: 2 * time.Second,
	NotFound:  2 * time.Second,
	Error:     3 * time.Second,
	Manual:    3 * time.Second,
}

// TimingsFromConfig reads the session delays.
func TimingsFromConfig(c config.SessionConfig) Timings {
	return Timings{
		Found:     c.FoundDelay,
		Duplicate: c.DuplicateDelay,
		NotFound:  c.NotFoundDelay,
		Error:     c.ErrorDelay,
		Manual:    c.ManualDelay,
	}
}

// Effects receives best-effort UI side effects. Implementations must not
// block and must not call back into the Session.
type Effects interface {
	Haptic()
	Highlight(barcode string)
}

// hubEffects forwards side effects as hub events.
type hubEffects struct{ hub *Hub }

func (e hubEffects) Haptic() { e.hub.Publish(Event{Type: EventHaptic}) }

func (e hubEffects) Highlight(barcode string) {
	e.hub.Publish(Event{Type: EventHighlight, Barcode: barcode})
}

// Option configures a Session or Service.
type Option func(*options)

type options struct {
	clock   Clock
	effects Effects
	timings Timings
	logger  *slog.Logger
	hub     *Hub
}

func WithClock(c Clock) Option         { return func(o *options) { o.clock = c } }
func WithEffects(e Effects) Option     { return func(o *options) { o.effects = e } }
func WithTimings(t Timings) Option     { return func(o *options) { o.timings = t } }
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }
func WithHub(h *Hub) Option            { return func(o *options) { o.hub = h } }

func buildOptions(opts []Option) options {
	o := options{clock: SystemClock, timings: DefaultTimings}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.hub == nil {
		o.hub = NewHub()
	}
	if o.effects == nil {
		o.effects = hubEffects{hub: o.hub}
	}
	return o
}

// ManualResult is the outcome of one manual add.
type ManualResult struct {
	Status Status       `json:"status"`
	Entry  *ResultEntry `json:"entry,omitempty"`
	// ClearInput is true when the input field should be emptied.
	ClearInput bool `json:"clear_input"`
}

// SessionSnapshot is a consistent view of the session.
type SessionSnapshot struct {
	State        SessionState `json:"state"`
	RunID        string       `json:"run_id,omitempty"`
	ScanStatus   Status       `json:"scan_status"`
	ManualStatus Status       `json:"manual_status"`
	ResultCount  int          `json:"result_count"`
}

// Session is the scan state machine. It consumes decoder events, looks
// barcodes up in the catalog and maintains the deduplicated result list.
//
// All state is guarded by mu. Each decoder run has a generation number and
// its own context; an event is acted on only if its run is still current
// and the session is Active, so events from a stopped decoder are dropped.
type Session struct {
	catalog *CatalogStore
	decoder Decoder
	hub     *Hub
	clock   Clock
	effects Effects
	timings Timings
	logger  *slog.Logger

	mu      sync.Mutex
	state   SessionState
	run     uint64
	runID   string
	cancel  context.CancelFunc
	results *ResultList
	scan    statusBoard
	manual  statusBoard
}

// NewSession returns an Idle session over catalog and decoder.
func NewSession(catalog *CatalogStore, decoder Decoder, opts ...Option) *Session {
	o := buildOptions(opts)
	return newSession(catalog, decoder, o)
}

func newSession(catalog *CatalogStore, decoder Decoder, o options) *Session {
	return &Session{
		catalog: catalog,
		decoder: decoder,
		hub:     o.hub,
		clock:   o.clock,
		effects: o.effects,
		timings: o.timings,
		logger:  o.logger.With("component", "session"),
		state:   StateIdle,
		results: NewResultList(),
		scan:    newStatusBoard(ChannelScan),
		manual:  newStatusBoard(ChannelManual),
	}
}

// Start moves the session from Idle to Active and begins consuming decoder
// events. It fails with ErrAlreadyScanning when a run is in progress,
// ErrCatalogEmpty without a catalog, and a setup *DecoderError when the
// decoder cannot be started; in every failure case the session stays Idle.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateActive {
		return ErrAlreadyScanning
	}
	if s.catalog.Len() == 0 {
		return ErrCatalogEmpty
	}

	s.run++
	run := s.run
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	events, err := s.decoder.Start(runCtx)
	if err != nil {
		cancel()
		derr := asSetupError(err)
		s.setStatusLocked(&s.scan, Status{
			Kind:  StatusSetupFailed,
			Text:  "Camera setup failed.",
			Alert: "Error accessing camera or starting scan: " + causeText(derr),
		}, 0)
		s.logger.Error("decoder setup failed", "kind", derr.Kind.String(), "error", err)
		return derr
	}

	s.state = StateActive
	s.cancel = cancel
	s.runID = uuid.NewString()
	s.hub.Publish(Event{Type: EventState, State: StateActive})
	s.setStatusLocked(&s.scan, Status{Kind: StatusPrompt, Text: PromptText}, 0)
	s.logger.Info("scan started", "run_id", s.runID)

	go s.consume(runCtx, run, events)
	return nil
}

// Stop releases the decoder and returns to Idle. It returns ErrNotScanning
// when the session is already Idle.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return ErrNotScanning
	}
	s.stopLocked()
	s.setStatusLocked(&s.scan, Status{Kind: StatusIdle}, 0)
	return nil
}

// stopLocked cancels the current run and marks the session Idle.
func (s *Session) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.logger.Info("scan stopped", "run_id", s.runID)
	s.state = StateIdle
	s.runID = ""
	s.hub.Publish(Event{Type: EventState, State: StateIdle})
}

// consume reads one decoder run's events in arrival order.
func (s *Session) consume(ctx context.Context, run uint64, events <-chan DecodeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				s.decoderClosed(run)
				return
			}
			s.handle(ctx, run, ev)
		}
	}
}

// decoderClosed ends a run whose decoder stopped on its own.
func (s *Session) decoderClosed(run uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run != s.run || s.state != StateActive {
		return
	}
	s.logger.Warn("decoder closed its event stream")
	s.stopLocked()
	s.setStatusLocked(&s.scan, Status{Kind: StatusIdle}, 0)
}

// handle applies one decoder event. It returns without effect for events
// belonging to a cancelled or superseded run.
func (s *Session) handle(ctx context.Context, run uint64, ev DecodeEvent) {
	var after func()

	s.mu.Lock()
	if ctx.Err() != nil || run != s.run || s.state != StateActive {
		s.mu.Unlock()
		return
	}

	switch ev.Kind {
	case DecodeMiss:
		// Nothing in view; keep scanning.

	case DecodeError:
		derr := ev.Err
		if derr == nil {
			derr = &DecoderError{Kind: DecoderOther}
		}
		s.logger.Error("decoder error, stopping scan", "kind", derr.Kind.String(), "error", derr)
		s.stopLocked()
		text, alert := decoderStatusText(derr)
		s.setStatusLocked(&s.scan, Status{Kind: StatusDecoderError, Text: text, Alert: alert}, s.timings.Error)

	case DecodeFound:
		after = s.recordLocked(&s.scan, ev.Code)
	}
	s.mu.Unlock()

	if after != nil {
		after()
	}
}

// recordLocked looks code up and updates the result list and the scan
// status. It returns the side effect to run once the lock is released.
func (s *Session) recordLocked(board *statusBoard, code string) func() {
	rec, ok := s.catalog.Lookup(code)
	if !ok {
		s.logger.Debug("barcode not found", "barcode", code)
		s.setStatusLocked(board, Status{
			Kind:    StatusNotFound,
			Text:    fmt.Sprintf("Barcode %s not found.", code),
			Barcode: code,
		}, s.timings.NotFound)
		return nil
	}

	entry := ResultEntry{Barcode: code, Record: rec}
	if !s.results.Add(entry) {
		s.setStatusLocked(board, Status{
			Kind:    StatusDuplicate,
			Text:    "Already scanned: " + rec.Name,
			Barcode: code,
		}, s.timings.Duplicate)
		return func() { s.effects.Highlight(code) }
	}

	s.hub.Publish(Event{Type: EventResults, Entry: &entry, ResultCount: s.results.Len()})
	s.setStatusLocked(board, Status{
		Kind:    StatusFound,
		Text:    "Scanned: " + rec.Name,
		Barcode: code,
	}, s.timings.Found)
	s.logger.Info("item scanned", "barcode", code, "name", rec.Name, "result_count", s.results.Len())
	return s.effects.Haptic
}

// ManualAdd looks up a typed barcode independently of the scan state.
// ErrEmptyInput and ErrCatalogNotLoaded are returned for the precondition
// failures; a barcode that is not in the catalog is a normal result.
func (s *Session) ManualAdd(raw string) (ManualResult, error) {
	code := strings.TrimSpace(raw)

	s.mu.Lock()
	var (
		res   ManualResult
		err   error
		after func()
	)

	switch {
	case code == "":
		res.Status = s.setStatusLocked(&s.manual, Status{Kind: StatusEmptyInput, Text: "Please enter a barcode."}, s.timings.Manual)
		err = ErrEmptyInput

	case s.catalog.Len() == 0:
		res.Status = s.setStatusLocked(&s.manual, Status{Kind: StatusCatalogNotLoaded, Text: "Product data not loaded."}, s.timings.Manual)
		err = ErrCatalogNotLoaded

	default:
		rec, ok := s.catalog.Lookup(code)
		switch {
		case !ok:
			res.Status = s.setStatusLocked(&s.manual, Status{Kind: StatusNotFound, Text: "Barcode not found!", Barcode: code}, s.timings.Manual)
		case s.results.Contains(code):
			res.Status = s.setStatusLocked(&s.manual, Status{Kind: StatusAlreadyInList, Text: "Already in list!", Barcode: code}, s.timings.Manual)
			after = func() { s.effects.Highlight(code) }
		default:
			entry := ResultEntry{Barcode: code, Record: rec}
			s.results.Add(entry)
			s.hub.Publish(Event{Type: EventResults, Entry: &entry, ResultCount: s.results.Len()})
			res.Status = s.setStatusLocked(&s.manual, Status{Kind: StatusAdded, Text: "Added!", Barcode: code}, s.timings.Manual)
			res.Entry = &entry
			res.ClearInput = true
		}
	}
	s.mu.Unlock()

	if after != nil {
		after()
	}
	return res, err
}

// ClearManualStatus blanks the manual status line, as when new input starts.
func (s *Session) ClearManualStatus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manual.current.Kind != StatusIdle {
		s.setStatusLocked(&s.manual, Status{Kind: StatusIdle}, 0)
	}
}

// ClearResults empties the result list.
func (s *Session) ClearResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results.Clear()
	s.hub.Publish(Event{Type: EventResults})
}

// Results returns the result list, newest first.
func (s *Session) Results() []ResultEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results.Entries()
}

// State returns the current state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the state, both status lines and the result count.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		State:        s.state,
		RunID:        s.runID,
		ScanStatus:   s.scan.current,
		ManualStatus: s.manual.current,
		ResultCount:  s.results.Len(),
	}
}

// Close stops any active run and cancels pending status timers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive {
		s.stopLocked()
	}
	s.scan.stopTimer()
	s.manual.stopTimer()
}

// setStatusLocked publishes st on board. A positive ttl schedules a revert
// that only applies if no newer status has been issued by then.
func (s *Session) setStatusLocked(board *statusBoard, st Status, ttl time.Duration) Status {
	board.stopTimer()
	board.seq++
	st.Seq = board.seq
	st.Channel = board.channel
	if ttl > 0 {
		st.ExpiresAt = s.clock.Now().Add(ttl)
		seq := board.seq
		board.timer = s.clock.AfterFunc(ttl, func() { s.expire(board, seq) })
	}
	board.current = st

	published := st
	s.hub.Publish(Event{Type: EventStatus, Status: &published})
	return st
}

// expire reverts board if seq is still its latest status. The scan line
// returns to the prompt while Active and keeps the last outcome while Idle;
// the manual line is blanked.
func (s *Session) expire(board *statusBoard, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if board.seq != seq {
		return
	}
	board.timer = nil

	switch board.channel {
	case ChannelScan:
		if s.state == StateActive {
			s.setStatusLocked(board, Status{Kind: StatusPrompt, Text: PromptText}, 0)
		}
	case ChannelManual:
		s.setStatusLocked(board, Status{Kind: StatusIdle}, 0)
	}
}

// decoderStatusText returns the status line and alert for a runtime
// decoder failure.
func decoderStatusText(e *DecoderError) (string, string) {
	switch e.Kind {
	case DecoderPermissionDenied:
		return "Camera permission denied.",
			"Camera permission was denied. Please allow camera access in your browser settings."
	case DecoderNoCamera:
		return "No suitable camera found.",
			"Could not find a suitable camera on this device."
	case DecoderDeviceBusy:
		return "Camera is already in use or cannot be read.",
			"Could not start the camera. It might be used by another application or browser tab."
	default:
		return "Scanning error. Try again.",
			"An unexpected scanning error occurred: " + causeText(e)
	}
}

func causeText(e *DecoderError) string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}
