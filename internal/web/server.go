// Package web provides the HTTP API and HTMX fragments for ScanList.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/ScanList/internal/config"
	"github.com/JonMunkholm/ScanList/internal/core"
	"github.com/JonMunkholm/ScanList/internal/decoder"
	"github.com/JonMunkholm/ScanList/internal/metrics"
	"github.com/JonMunkholm/ScanList/internal/web/middleware"
)

// Server is the HTTP server for the scanner UI and API.
type Server struct {
	service *core.Service
	remote  *decoder.Remote
	metrics *metrics.Metrics
	cfg     *config.Config
	logger  *slog.Logger

	router *chi.Mux
	server *http.Server
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithRemote enables POST /api/scan/events for browser-side decoding. The
// remote must be the decoder the service's session was built with.
func WithRemote(r *decoder.Remote) Option { return func(s *Server) { s.remote = r } }

// WithMetrics adds request instrumentation and the scrape endpoint.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// NewServer builds the router. ctx bounds background work such as rate
// limiter cleanup.
func NewServer(ctx context.Context, service *core.Service, cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		logger:  slog.Default(),
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "http")
	s.setupMiddleware(ctx)
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) setupMiddleware(ctx context.Context) {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger("/healthz", s.cfg.Metrics.Path))
	s.router.Use(chimw.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(chimw.Compress(5))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := middleware.NewRateLimiter(ctx, s.cfg.Rate)
		s.router.Use(limiter.Middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}

	s.router.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
		r.Get("/", s.handleIndex)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		// The event stream is long-lived and must not be cut by the
		// request timeout.
		r.Get("/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

			r.Get("/catalog", s.handleCatalogInfo)
			r.Post("/catalog", s.handleLoadCatalog)
			r.Delete("/catalog", s.handleClearCatalog)
			r.Get("/lookup/{barcode}", s.handleLookup)

			r.Post("/scan/start", s.handleScanStart)
			r.Post("/scan/stop", s.handleScanStop)
			r.Post("/scan/events", s.handleScanEvent)
			r.Get("/scan/status", s.handleScanStatus)

			r.Post("/manual", s.handleManualAdd)
			r.Delete("/manual/status", s.handleManualClear)

			r.Get("/results", s.handleResults)
			r.Delete("/results", s.handleClearResults)
		})
	})
}

// ListenAndServe serves until Shutdown is called. It returns nil after a
// graceful shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			// Camera access stays allowed for this origin only.
			h.Set("Permissions-Policy", "camera=(self)")
			if csp {
				h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; media-src 'self' blob:")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
