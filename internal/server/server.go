package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nholik/delegate-sentinel/internal/healthcheck"
	"github.com/nholik/delegate-sentinel/internal/metrics"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Start launches health and metrics HTTP servers as configured.
func Start(ctx context.Context, logger zerolog.Logger, pollInterval time.Duration, tracker *healthcheck.Tracker, metricsCollector *metrics.Metrics, healthPort, metricsPort int) {
	if healthPort == 0 && metricsPort == 0 {
		return
	}

	if healthPort > 0 && metricsPort > 0 && healthPort == metricsPort {
		r := chi.NewRouter()
		registerHealthRoutes(r, tracker, pollInterval)
		registerMetricsRoute(r, metricsCollector)
		startServer(ctx, logger, r, healthPort, "health/metrics")
		return
	}

	if healthPort > 0 {
		r := chi.NewRouter()
		registerHealthRoutes(r, tracker, pollInterval)
		startServer(ctx, logger, r, healthPort, "health")
	}

	if metricsPort > 0 {
		r := chi.NewRouter()
		registerMetricsRoute(r, metricsCollector)
		startServer(ctx, logger, r, metricsPort, "metrics")
	}
}

// StartEvents launches the event ingestion server.
func StartEvents(ctx context.Context, logger zerolog.Logger, handler http.Handler, port int) {
	if port <= 0 {
		return
	}
	startServer(ctx, logger, handler, port, "events")
}

func registerHealthRoutes(r chi.Router, tracker *healthcheck.Tracker, pollInterval time.Duration) {
	r.Get("/healthz", healthcheck.HealthHandler(tracker, pollInterval))
	r.Get("/readyz", healthcheck.ReadyHandler(tracker))
}

func registerMetricsRoute(r chi.Router, metricsCollector *metrics.Metrics) {
	if metricsCollector == nil {
		return
	}
	r.Handle("/metrics", metricsCollector.Handler())
}

func startServer(ctx context.Context, logger zerolog.Logger, handler http.Handler, port int, label string) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("server", label).Int("port", port).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("server", label).Int("port", port).Msg("http server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("server", label).Int("port", port).Msg("http server shutdown failed")
		}
	}()
}
