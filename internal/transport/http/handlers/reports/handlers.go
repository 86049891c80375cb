package reportshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/reports"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type ReportService interface {
	Dashboard(ctx context.Context, actor access.Actor) (reports.Dashboard, error)
	JobRuns(ctx context.Context, actor access.Actor, jobType string, limit, offset int) ([]reports.JobRun, error)
}

type Handler struct {
	Service ReportService
}

func NewHandler(service ReportService) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/jobs", h.handleJobRuns)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	dashboard, err := h.Service.Dashboard(r.Context(), user)
	if err != nil {
		slog.Warn("dashboard failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard", requestID)
		return
	}
	api.Success(w, dashboard, requestID)
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	runs, err := h.Service.JobRuns(r.Context(), user, r.URL.Query().Get("jobType"), page.Limit, page.Offset)
	if errors.Is(err, access.ErrForbidden) {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
		return
	}
	if err != nil {
		slog.Warn("job run list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", requestID)
		return
	}
	if runs == nil {
		runs = []reports.JobRun{}
	}
	api.Success(w, runs, requestID)
}
