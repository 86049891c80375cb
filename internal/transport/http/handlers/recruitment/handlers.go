package recruitmenthandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/recruitment"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type RecruitmentService interface {
	CreatePosting(ctx context.Context, actor access.Actor, in recruitment.PostingInput) (recruitment.Posting, error)
	ListPostings(ctx context.Context, actor access.Actor) ([]recruitment.Posting, error)
	OpenPostings(ctx context.Context) ([]recruitment.Posting, error)
	SetPostingStatus(ctx context.Context, actor access.Actor, id, status string) (recruitment.Posting, error)
	DeletePosting(ctx context.Context, actor access.Actor, id string) error
	Apply(ctx context.Context, in recruitment.ApplicationInput) (recruitment.Application, error)
	ListApplications(ctx context.Context, actor access.Actor, jobID string) ([]recruitment.Application, error)
}

type Handler struct {
	Service     RecruitmentService
	Audit       shared.AuditRecorder
	Idempotency middleware.IdempotencyStoreAPI
}

func NewHandler(service RecruitmentService, auditor shared.AuditRecorder, idempotency middleware.IdempotencyStoreAPI) *Handler {
	return &Handler{Service: service, Audit: auditor, Idempotency: idempotency}
}

// RegisterRoutes mounts the public careers page and the authenticated
// recruitment back office.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/careers", func(r chi.Router) {
		r.Get("/jobs", h.handleOpenPostings)
		r.With(middleware.Idempotent(h.Idempotency, "careers.apply")).Post("/applications", h.handleApply)
	})
	r.Route("/recruitment", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/jobs", h.handleListPostings)
		r.Post("/jobs", h.handleCreatePosting)
		r.Patch("/jobs/{jobID}", h.handleSetStatus)
		r.Delete("/jobs/{jobID}", h.handleDeletePosting)
		r.Get("/applications", h.handleListApplications)
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleOpenPostings(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.OpenPostings(r.Context())
	h.writePostings(w, r, list, err)
}

func (h *Handler) handleListPostings(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	list, err := h.Service.ListPostings(r.Context(), user)
	h.writePostings(w, r, list, err)
}

func (h *Handler) writePostings(w http.ResponseWriter, r *http.Request, list []recruitment.Posting, err error) {
	if err != nil {
		h.fail(w, r, err, "job_list_failed")
		return
	}
	if list == nil {
		list = []recruitment.Posting{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload recruitment.ApplicationInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Required("jobId", payload.JobID, "job id is required")
	v.Required("name", payload.Name, "name is required")
	v.Required("email", payload.Email, "email is required")
	if v.Reject(w, requestID) {
		return
	}
	app, err := h.Service.Apply(r.Context(), payload)
	if err != nil {
		h.fail(w, r, err, "application_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		Action:     "recruitment.apply",
		EntityType: "application",
		EntityID:   app.ID,
	})
	api.Created(w, app, requestID)
}

func (h *Handler) handleCreatePosting(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload recruitment.PostingInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	posting, err := h.Service.CreatePosting(r.Context(), user, payload)
	if err != nil {
		h.fail(w, r, err, "job_create_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "recruitment.job.create",
		EntityType: "job",
		EntityID:   posting.ID,
		After:      payload,
	})
	api.Created(w, posting, requestID)
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload statusRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	jobID := chi.URLParam(r, "jobID")
	posting, err := h.Service.SetPostingStatus(r.Context(), user, jobID, payload.Status)
	if err != nil {
		h.fail(w, r, err, "job_update_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "recruitment.job.status",
		EntityType: "job",
		EntityID:   jobID,
		After:      payload,
	})
	api.Success(w, posting, requestID)
}

func (h *Handler) handleDeletePosting(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	jobID := chi.URLParam(r, "jobID")
	if err := h.Service.DeletePosting(r.Context(), user, jobID); err != nil {
		h.fail(w, r, err, "job_delete_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "recruitment.job.delete",
		EntityType: "job",
		EntityID:   jobID,
	})
	api.Success(w, map[string]string{"id": jobID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	list, err := h.Service.ListApplications(r.Context(), user, r.URL.Query().Get("jobId"))
	if err != nil {
		h.fail(w, r, err, "application_list_failed")
		return
	}
	if list == nil {
		list = []recruitment.Application{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, access.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, recruitment.ErrPostingNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "job posting not found", requestID)
	case errors.Is(err, recruitment.ErrPostingClosed):
		api.Fail(w, http.StatusConflict, "posting_closed", "job posting is closed", requestID)
	case errors.Is(err, recruitment.ErrInvalidStatus), errors.Is(err, recruitment.ErrTitleRequired),
		errors.Is(err, recruitment.ErrDepartmentRequired), errors.Is(err, recruitment.ErrNameRequired),
		errors.Is(err, recruitment.ErrInvalidResumeLink), errors.Is(err, auth.ErrInvalidEmail):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		slog.Warn("recruitment request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "recruitment request failed", requestID)
	}
}
