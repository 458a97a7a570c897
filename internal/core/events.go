package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a session event.
type EventType string

const (
	EventStatus    EventType = "status"
	EventResults   EventType = "results"
	EventState     EventType = "state"
	EventHighlight EventType = "highlight"
	EventHaptic    EventType = "haptic"
	EventCatalog   EventType = "catalog"
)

// Event is broadcast to subscribers whenever the session or catalog
// changes. Only the fields relevant to Type are set.
type Event struct {
	Type        EventType     `json:"type"`
	Status      *Status       `json:"status,omitempty"`
	State       SessionState  `json:"state,omitempty"`
	Barcode     string        `json:"barcode,omitempty"`
	Entry       *ResultEntry  `json:"entry,omitempty"`
	ResultCount int           `json:"result_count,omitempty"`
	ItemCount   int           `json:"item_count,omitempty"`
	Outcome     IngestOutcome `json:"outcome,omitempty"`
	Time        time.Time     `json:"time"`
}

// Hub fans events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

// NewHub returns a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Event)}
}

// Subscribe registers a listener with the given buffer size. The returned
// cancel func unregisters it and closes the channel; it is safe to call more
// than once.
func (h *Hub) Subscribe(buffer int) (string, <-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	id := uuid.NewString()
	ch := make(chan Event, buffer)

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return id, ch, cancel
}

// Publish delivers e to every subscriber without blocking.
func (h *Hub) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers returns the current listener count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
