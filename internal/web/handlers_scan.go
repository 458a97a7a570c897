package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JonMunkholm/ScanList/internal/core"
	"github.com/JonMunkholm/ScanList/internal/decoder"
)

// maxEventBody caps decoder event and manual entry bodies.
const maxEventBody = 4 << 10

var errNoRemote = errors.New("invalid request: this server does not accept pushed scanner events")

// respondSession writes the session snapshot, or the status panel for HTMX.
func (s *Server) respondSession(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Session().Snapshot()
	if isHTMX(r) {
		_ = StatusPanel(snap).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleScanStart(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Session().Start(withClient(r)); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondSession(w, r)
}

func (s *Server) handleScanStop(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Session().Stop(); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondSession(w, r)
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	s.respondSession(w, r)
}

// handleScanEvent accepts one decode callback from a browser client:
// {"code":"..."}, {"miss":true} or {"error":"NotAllowedError","message":"..."}.
func (s *Server) handleScanEvent(w http.ResponseWriter, r *http.Request) {
	if s.remote == nil {
		s.respondError(w, r, errNoRemote, http.StatusNotFound)
		return
	}

	var body decoder.BrowserEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody)).Decode(&body); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	ev, err := body.DecodeEvent()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}

	if err := s.remote.Push(ev); err != nil {
		if errors.Is(err, decoder.ErrNotRunning) {
			err = fmt.Errorf("%w: %w", core.ErrNotScanning, err)
		}
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

// manualRequest is the JSON body of POST /api/manual. Form posts use the
// "barcode" field.
type manualRequest struct {
	Barcode string `json:"barcode"`
}

func (s *Server) handleManualAdd(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBody)

	var req manualRequest
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, r, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
			return
		}
	} else {
		req.Barcode = r.FormValue("barcode")
	}

	res, err := s.service.Session().ManualAdd(req.Barcode)
	if isHTMX(r) {
		// The manual status line already carries the outcome text.
		if res.ClearInput {
			w.Header().Set("HX-Trigger", "manual-added")
		}
		s.respondSession(w, r)
		return
	}
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleManualClear(w http.ResponseWriter, r *http.Request) {
	s.service.Session().ClearManualStatus()
	s.respondSession(w, r)
}

// resultsResponse is the body of GET /api/results.
type resultsResponse struct {
	Count   int                `json:"count"`
	Results []core.ResultEntry `json:"results"`
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	entries := s.service.Session().Results()
	if isHTMX(r) {
		_ = ResultsList(entries).Render(r.Context(), w)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{Count: len(entries), Results: entries})
}

func (s *Server) handleClearResults(w http.ResponseWriter, r *http.Request) {
	s.service.Session().ClearResults()
	s.handleResults(w, r)
}
