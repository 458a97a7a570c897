package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/ScanList/internal/core"
	"github.com/JonMunkholm/ScanList/internal/logging"
)

// sseKeepAlive is how often a comment line is sent on an idle stream.
const sseKeepAlive = 15 * time.Second

// handleIndex renders the scanner page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.service.Session()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = IndexPage(s.service.CatalogStatus(), sess.Snapshot(), sess.Results()).Render(r.Context(), w)
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status       string            `json:"status"`
	CatalogItems int               `json:"catalog_items"`
	Session      core.SessionState `json:"session"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		CatalogItems: s.service.CatalogStatus().ItemCount,
		Session:      s.service.Session().State(),
	})
}

// handleEvents streams session and catalog events via Server-Sent Events.
// The first event is a "snapshot" carrying the current session view so a
// reconnecting client can resync without replay.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	logger := logging.FromContext(r.Context())

	id, events, cancel := s.service.Hub().Subscribe(64)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, "retry: 3000\n\n")
	if err := writeSSE(w, "snapshot", s.service.Session().Snapshot()); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		logger.Error("event stream not supported", "error", err)
		return
	}
	logger.Debug("event stream opened", "subscriber_id", id)

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug("event stream closed", "subscriber_id", id)
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSE(w, string(e.Type), e); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
