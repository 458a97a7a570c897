package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ScanList/internal/core"
)

func status(ch core.StatusChannel, kind core.StatusKind) core.Event {
	return core.Event{Type: core.EventStatus, Status: &core.Status{Channel: ch, Kind: kind}}
}

func TestObserve(t *testing.T) {
	m := New(nil)

	m.Observe(core.Event{Type: core.EventCatalog, Outcome: core.OutcomeSuccess, ItemCount: 3})
	m.Observe(core.Event{Type: core.EventCatalog, Outcome: core.OutcomeSchemaError})
	m.Observe(status(core.ChannelScan, core.StatusFound))
	m.Observe(status(core.ChannelScan, core.StatusFound))
	m.Observe(status(core.ChannelScan, core.StatusPrompt))
	m.Observe(status(core.ChannelManual, core.StatusNotFound))
	m.Observe(core.Event{Type: core.EventState, State: core.StateActive})
	m.Observe(core.Event{Type: core.EventResults, ResultCount: 2})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogLoads.WithLabelValues(string(core.OutcomeSuccess))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogLoads.WithLabelValues(string(core.OutcomeSchemaError))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.catalogItems), "failed load leaves zero items")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.scanOutcomes.WithLabelValues(string(core.StatusFound))))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.scanOutcomes.WithLabelValues(string(core.StatusPrompt))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.manualOutcomes.WithLabelValues(string(core.StatusNotFound))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scanning))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.results))
}

func TestWatch(t *testing.T) {
	hub := core.NewHub()
	m := New(hub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Watch(ctx, hub)
		close(done)
	}()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subscribers))

	hub.Publish(core.Event{Type: core.EventCatalog, Outcome: core.OutcomeSuccess, ItemCount: 7})
	require.Eventually(t, func() bool { return testutil.ToFloat64(m.catalogItems) == 7 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, hub.Subscribers())
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New(nil)
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/lookup/{barcode}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, code := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/lookup/"+code, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/lookup/{barcode}", "404")))
}

func TestHandler(t *testing.T) {
	m := New(nil)
	m.Observe(core.Event{Type: core.EventCatalog, Outcome: core.OutcomeSuccess, ItemCount: 1})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `scanlist_catalog_loads_total{outcome="success"} 1`))
	assert.True(t, strings.Contains(body, "scanlist_catalog_items 1"))
}
