package performancehandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/performance"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type RatingService interface {
	Rate(ctx context.Context, actor access.Actor, employeeID string, rating int, comment string) (performance.Rating, error)
	Get(ctx context.Context, actor access.Actor, employeeID string) (performance.Rating, bool, error)
	List(ctx context.Context, actor access.Actor) ([]performance.Listed, error)
	Distribution(ctx context.Context, actor access.Actor) (performance.Distribution, error)
}

type Handler struct {
	Service RatingService
	Audit   shared.AuditRecorder
}

func NewHandler(service RatingService, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/performance", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/distribution", h.handleDistribution)
		r.Get("/{employeeID}", h.handleGet)
		r.Put("/{employeeID}", h.handleRate)
	})
}

type rateRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	list, err := h.Service.List(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "performance_list_failed")
		return
	}
	if list == nil {
		list = []performance.Listed{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDistribution(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	dist, err := h.Service.Distribution(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "performance_distribution_failed")
		return
	}
	api.Success(w, dist, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	rating, found, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err, "performance_get_failed")
		return
	}
	if !found {
		api.Fail(w, http.StatusNotFound, "not_found", "no rating recorded", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rating, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload rateRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	rating, err := h.Service.Rate(r.Context(), user, employeeID, payload.Rating, payload.Comment)
	if err != nil {
		h.fail(w, r, err, "performance_rate_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "performance.rate",
		EntityType: "performance",
		EntityID:   employeeID,
		After:      payload,
	})
	api.Success(w, rating, requestID)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, access.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, performance.ErrRatingNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "no rating recorded", requestID)
	case errors.Is(err, performance.ErrUnknownEmployee):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, performance.ErrRatingRange), errors.Is(err, performance.ErrCommentTooLong), errors.Is(err, performance.ErrEmployeeID):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		slog.Warn("performance request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "performance request failed", requestID)
	}
}
