// Package statusapi exposes retrieval progress over HTTP while a download
// runs: a health probe, a JSON progress snapshot, and Prometheus metrics.
package statusapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sma-lab/smactl/internal/dataset"
	"github.com/sma-lab/smactl/internal/metrics"
)

// NewHandler builds the status router.
func NewHandler(tracker *dataset.Tracker, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	r.Get("/progress", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(tracker.Snapshot()); err != nil {
			http.Error(w, "encode failed", http.StatusInternalServerError)
		}
	})

	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	return r
}

// Serve runs the status server until ctx is cancelled, then shuts it down
// gracefully. Listen errors are logged, not fatal: losing the status
// endpoint must never abort a running download.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) {
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("status server listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Warn("status server failed", "error", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("status server shutdown incomplete", "error", err)
			srv.Close()
		}
	}
}
