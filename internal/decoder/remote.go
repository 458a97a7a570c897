// Package decoder provides barcode sources for the scan session.
//
// Remote is fed over HTTP by a browser that does the camera decoding
// itself. Lines reads one code per line from a device file or stdin, which
// covers keyboard-wedge and serial scanners.
package decoder

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/JonMunkholm/ScanList/internal/core"
)

var (
	// ErrNotRunning is returned by Push when no scan run is active.
	ErrNotRunning = errors.New("decoder: no active scan")

	// ErrBacklog is returned by Push when the session is not keeping up.
	ErrBacklog = errors.New("decoder: event queue full")
)

// Remote is a push-fed Decoder.
type Remote struct {
	buffer int

	mu sync.Mutex
	ch chan core.DecodeEvent
}

// NewRemote returns a decoder whose runs queue up to buffer events.
func NewRemote(buffer int) *Remote {
	if buffer <= 0 {
		buffer = 32
	}
	return &Remote{buffer: buffer}
}

// Start opens a new run. The run's channel is closed when ctx is cancelled.
func (r *Remote) Start(ctx context.Context) (<-chan core.DecodeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch != nil {
		close(r.ch)
	}
	ch := make(chan core.DecodeEvent, r.buffer)
	r.ch = ch

	context.AfterFunc(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.ch == ch {
			close(ch)
			r.ch = nil
		}
	})
	return ch, nil
}

// Push queues ev for the current run without blocking.
func (r *Remote) Push(ev core.DecodeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch == nil {
		return ErrNotRunning
	}
	select {
	case r.ch <- ev:
		return nil
	default:
		return ErrBacklog
	}
}

// Running reports whether a run is open.
func (r *Remote) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch != nil
}

// BrowserEvent is the JSON body a browser client posts for each decode
// callback. Exactly one of Code, Miss or Error is expected.
type BrowserEvent struct {
	Code    string `json:"code,omitempty"`
	Miss    bool   `json:"miss,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrEmptyEvent rejects a browser event that carries nothing.
var ErrEmptyEvent = errors.New("decoder: event has no code, miss or error")

// DecodeEvent converts the browser payload.
func (b BrowserEvent) DecodeEvent() (core.DecodeEvent, error) {
	switch {
	case b.Error != "":
		kind, miss := ClassifyBrowserError(b.Error)
		if miss {
			return core.Miss(), nil
		}
		msg := b.Error
		if b.Message != "" {
			msg += ": " + b.Message
		}
		return core.DecodeFailed(kind, errors.New(msg)), nil
	case b.Miss:
		return core.Miss(), nil
	case strings.TrimSpace(b.Code) != "":
		return core.Decoded(strings.TrimSpace(b.Code)), nil
	default:
		return core.DecodeEvent{}, ErrEmptyEvent
	}
}

// ClassifyBrowserError maps a browser media or decoder error name to a
// kind. miss is true for the nothing-detected signal, which is not an error.
func ClassifyBrowserError(name string) (kind core.DecoderErrorKind, miss bool) {
	switch name {
	case "NotFoundException":
		return core.DecoderOther, true
	case "NotAllowedError", "PermissionDeniedError", "SecurityError":
		return core.DecoderPermissionDenied, false
	case "NotFoundError", "DevicesNotFoundError", "OverconstrainedError":
		return core.DecoderNoCamera, false
	case "NotReadableError", "TrackStartError":
		return core.DecoderDeviceBusy, false
	default:
		return core.DecoderOther, false
	}
}
