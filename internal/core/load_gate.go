package core

// load_gate.go serializes catalog loads.
//
// Only one ingestion may run at a time because each one replaces the whole
// catalog. A second load waits up to maxWait for the first to finish before
// failing with ErrLoadBusy. WaitForDrain lets shutdown wait for a running
// load to complete.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrLoadBusy is returned when another catalog load holds the gate past
// the wait timeout.
var ErrLoadBusy = errors.New("another catalog load is in progress")

// DefaultLoadWait is used when no wait time is configured.
const DefaultLoadWait = 10 * time.Second

// LoadGate is a single-slot semaphore around catalog ingestion.
type LoadGate struct {
	slot    chan struct{}
	maxWait time.Duration
	active  atomic.Int32
}

// NewLoadGate returns an open gate.
func NewLoadGate(maxWait time.Duration) *LoadGate {
	if maxWait <= 0 {
		maxWait = DefaultLoadWait
	}
	return &LoadGate{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire waits for the gate. The caller must call Release when done.
func (g *LoadGate) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.slot <- struct{}{}:
		g.active.Add(1)
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrLoadBusy
	}
}

// Release frees the gate.
func (g *LoadGate) Release() {
	g.active.Add(-1)
	<-g.slot
}

// Busy reports whether a load is running.
func (g *LoadGate) Busy() bool {
	return g.active.Load() > 0
}

// WaitForDrain blocks until no load is running or ctx is done.
func (g *LoadGate) WaitForDrain(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
		<-g.slot
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
