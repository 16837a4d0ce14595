package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paper-digest/internal/observability/tracing"
)

// HealthServer exposes liveness, readiness and Prometheus metrics.
//
//   - GET /health: always 200 while the process runs
//   - GET /health/ready: 200 once the scheduler is running, 503 before
//   - GET /metrics: Prometheus exposition
type HealthServer struct {
	addr     string
	logger   *slog.Logger
	isReady  atomic.Bool
	gatherer prometheus.Gatherer
	server   *http.Server
}

type healthResponse struct {
	Status string `json:"status"`
}

// NewHealthServer creates a server for addr. A nil gatherer serves the
// default registry.
func NewHealthServer(addr string, logger *slog.Logger, gatherer prometheus.Gatherer) *HealthServer {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &HealthServer{addr: addr, logger: logger, gatherer: gatherer}
}

// Handler returns the routed, traced handler.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleLiveness)
	mux.HandleFunc("/health/ready", h.handleReadiness)
	mux.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	return tracing.Middleware(mux)
}

// Start serves until ctx is cancelled, then shuts down within 5s.
// It returns http.ErrServerClosed after a clean shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		errChan <- h.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		h.logger.Info("health server shutting down")
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		return http.ErrServerClosed

	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	h.writeStatus(w, http.StatusOK, "ok")
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if h.isReady.Load() {
		h.writeStatus(w, http.StatusOK, "ok")
		return
	}
	h.writeStatus(w, http.StatusServiceUnavailable, "not ready")
}

func (h *HealthServer) writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(healthResponse{Status: status}); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
