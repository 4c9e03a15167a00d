package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvoss/persona-pilot/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Start launches the metrics HTTP server when a port is configured. Long
// orchestrations can take minutes; the endpoint lets operators watch request
// and variant counters while a run is in flight.
func Start(ctx context.Context, logger zerolog.Logger, metricsCollector *metrics.Metrics, port int) {
	if port == 0 || metricsCollector == nil {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsCollector.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Int("port", port).Msg("metrics server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Int("port", port).Msg("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Int("port", port).Msg("metrics server shutdown failed")
		}
	}()
}
