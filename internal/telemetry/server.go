// Package telemetry exposes the process's Prometheus metrics over HTTP.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const metricsPath = "/metrics"

// RegisterMetricsHandlers adds metrics routes to the provided mux
func RegisterMetricsHandlers(mux *http.ServeMux) {
	mux.Handle(metricsPath, promhttp.Handler())
}

// Serve runs the metrics endpoint on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	RegisterMetricsHandlers(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Str("path", metricsPath).Msg("Serving metrics")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
