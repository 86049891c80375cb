package grievanceshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/grievances"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type GrievanceService interface {
	File(ctx context.Context, actor access.Actor, in grievances.Input) (grievances.Grievance, error)
	List(ctx context.Context, actor access.Actor) ([]grievances.Grievance, error)
	Resolve(ctx context.Context, actor access.Actor, id string) (grievances.Grievance, error)
}

type Handler struct {
	Service GrievanceService
	Audit   shared.AuditRecorder
}

func NewHandler(service GrievanceService, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/grievances", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/", h.handleFile)
		r.Post("/{grievanceID}/resolve", h.handleResolve)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	list, err := h.Service.List(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "grievance_list_failed")
		return
	}
	if list == nil {
		list = []grievances.Grievance{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload grievances.Input
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	g, err := h.Service.File(r.Context(), user, payload)
	if err != nil {
		h.fail(w, r, err, "grievance_file_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "grievance.file",
		EntityType: "grievance",
		EntityID:   g.ID,
	})
	api.Created(w, g, requestID)
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	grievanceID := chi.URLParam(r, "grievanceID")
	g, err := h.Service.Resolve(r.Context(), user, grievanceID)
	if err != nil {
		h.fail(w, r, err, "grievance_resolve_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "grievance.resolve",
		EntityType: "grievance",
		EntityID:   grievanceID,
	})
	api.Success(w, g, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, access.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, grievances.ErrGrievanceNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "grievance not found", requestID)
	case errors.Is(err, grievances.ErrAlreadyResolved):
		api.Fail(w, http.StatusConflict, "already_resolved", "grievance is already resolved", requestID)
	case errors.Is(err, grievances.ErrTitleRequired), errors.Is(err, grievances.ErrTitleTooLong):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		slog.Warn("grievance request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "grievance request failed", requestID)
	}
}
