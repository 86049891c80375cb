package healthhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type MetricsSource interface {
	Snapshot() map[string]any
}

type Handler struct {
	DB      Pinger
	Metrics MetricsSource
}

// NewHandler serves /metrics only when metrics is non-nil.
func NewHandler(db Pinger, metrics MetricsSource) *Handler {
	return &Handler{DB: db, Metrics: metrics}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	if h.Metrics != nil {
		r.Get("/metrics", h.handleMetrics)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if h.DB == nil || h.DB.Ping(ctx) != nil {
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
}
