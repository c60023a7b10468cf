package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nholik/delegate-sentinel/internal/healthcheck"
	"github.com/nholik/delegate-sentinel/internal/metrics"
)

func TestHealthAndMetricsRoutes(t *testing.T) {
	tracker := healthcheck.NewTracker()
	tracker.SetReady(51)
	collector := metrics.New()
	collector.IncEvents("block.forged")

	r := chi.NewRouter()
	registerHealthRoutes(r, tracker, 0)
	registerMetricsRoute(r, collector)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, rec.Code)
		}
	}
}

func TestMetricsRouteSkippedWithoutCollector(t *testing.T) {
	r := chi.NewRouter()
	registerHealthRoutes(r, healthcheck.NewTracker(), time.Second)
	registerMetricsRoute(r, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without collector, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", rec.Code)
	}
}
