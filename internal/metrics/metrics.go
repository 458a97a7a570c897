// Package metrics exposes Prometheus counters for catalog loads, scans and
// HTTP traffic. Domain counters are fed from the core event hub so the
// session itself stays free of instrumentation.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/ScanList/internal/core"
)

const namespace = "scanlist"

// Metrics owns a private registry.
type Metrics struct {
	registry *prometheus.Registry

	catalogLoads   *prometheus.CounterVec
	catalogItems   prometheus.Gauge
	scanOutcomes   *prometheus.CounterVec
	manualOutcomes *prometheus.CounterVec
	scanning       prometheus.Gauge
	results        prometheus.Gauge
	subscribers    prometheus.GaugeFunc

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers all collectors. hub may be nil; the subscriber gauge then
// reports zero.
func New(hub *core.Hub) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_loads_total",
			Help:      "Catalog ingestion passes by outcome.",
		}, []string{"outcome"}),
		catalogItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_items",
			Help:      "Products in the live catalog.",
		}),
		scanOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_outcomes_total",
			Help:      "Camera scan outcomes by status kind.",
		}, []string{"kind"}),
		manualOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manual_outcomes_total",
			Help:      "Manual entry outcomes by status kind.",
		}, []string{"kind"}),
		scanning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scan_active",
			Help:      "1 while a scan session is running.",
		}),
		results: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "result_list_size",
			Help:      "Entries in the scanned results list.",
		}),
		subscribers: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_subscribers",
			Help:      "Connected event stream listeners.",
		}, func() float64 {
			if hub == nil {
				return 0
			}
			return float64(hub.Subscribers())
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.catalogLoads, m.catalogItems,
		m.scanOutcomes, m.manualOutcomes,
		m.scanning, m.results, m.subscribers,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Watch subscribes to hub and updates the domain collectors until ctx is
// done.
func (m *Metrics) Watch(ctx context.Context, hub *core.Hub) {
	_, events, cancel := hub.Subscribe(256)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			m.Observe(e)
		}
	}
}

// Observe applies a single event.
func (m *Metrics) Observe(e core.Event) {
	switch e.Type {
	case core.EventCatalog:
		if e.Outcome != "" {
			m.catalogLoads.WithLabelValues(string(e.Outcome)).Inc()
		}
		m.catalogItems.Set(float64(e.ItemCount))

	case core.EventStatus:
		if e.Status == nil || !countable(e.Status.Kind) {
			return
		}
		if e.Status.Channel == core.ChannelManual {
			m.manualOutcomes.WithLabelValues(string(e.Status.Kind)).Inc()
		} else {
			m.scanOutcomes.WithLabelValues(string(e.Status.Kind)).Inc()
		}

	case core.EventState:
		if e.State == core.StateActive {
			m.scanning.Set(1)
		} else {
			m.scanning.Set(0)
		}

	case core.EventResults:
		m.results.Set(float64(e.ResultCount))
	}
}

// countable excludes the resting states a status line falls back to.
func countable(k core.StatusKind) bool {
	return k != core.StatusIdle && k != core.StatusPrompt
}

// Middleware records request count and latency keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
