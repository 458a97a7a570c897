package web

// errors.go provides unified error responses for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to a coded user message
//  4. Technical error is logged with the request ID
//  5. User message is rendered as an HTMX fragment, JSON or plain text

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/ScanList/internal/core"
	"github.com/JonMunkholm/ScanList/internal/decoder"
	"github.com/JonMunkholm/ScanList/internal/logging"
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the mapped user message in the format
// the client asked for.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request rejected", args...)
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		// HTMX ignores non-2xx bodies unless told otherwise; retarget the
		// alert so it is still shown.
		w.Header().Set("HX-Retarget", "#alerts")
		w.Header().Set("HX-Reswap", "innerHTML")
		w.WriteHeader(statusCode)
		_ = ErrorAlert(userMsg).Render(r.Context(), w)
	case wantsJSON(r):
		writeJSON(w, statusCode, ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
	default:
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", statusCode)
	}
}

// statusFor picks the HTTP status for a service error.
func statusFor(err error) int {
	var (
		schemaErr  *core.SchemaError
		parseErr   *core.ParseError
		decoderErr *core.DecoderError
	)
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNotCSV):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrEmptyFile), errors.Is(err, core.ErrNoFile), errors.Is(err, core.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.As(err, &schemaErr), errors.As(err, &parseErr), errors.Is(err, core.ErrEmptyResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrLoadBusy),
		errors.Is(err, core.ErrCatalogEmpty),
		errors.Is(err, core.ErrCatalogNotLoaded),
		errors.Is(err, core.ErrAlreadyScanning),
		errors.Is(err, core.ErrNotScanning),
		errors.Is(err, decoder.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, decoder.ErrBacklog), errors.As(err, &decoderErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON reports whether the client prefers JSON. API routes default to
// JSON.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
