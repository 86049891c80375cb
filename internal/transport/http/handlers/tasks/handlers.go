package taskshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/tasks"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type TaskService interface {
	Assign(ctx context.Context, actor access.Actor, in tasks.AssignInput) (tasks.Task, error)
	ListAll(ctx context.Context, actor access.Actor) ([]tasks.Task, error)
	ListForAssignee(ctx context.Context, actor access.Actor, email string) ([]tasks.Task, error)
	Update(ctx context.Context, actor access.Actor, id string, in tasks.UpdateInput) (tasks.Task, error)
	Stats(ctx context.Context, actor access.Actor) (tasks.Stats, error)
}

type Handler struct {
	Service     TaskService
	Audit       shared.AuditRecorder
	Idempotency middleware.IdempotencyStoreAPI
}

func NewHandler(service TaskService, auditor shared.AuditRecorder, idempotency middleware.IdempotencyStoreAPI) *Handler {
	return &Handler{Service: service, Audit: auditor, Idempotency: idempotency}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleListAll)
		r.With(middleware.Idempotent(h.Idempotency, "tasks.assign")).Post("/", h.handleAssign)
		r.Get("/mine", h.handleListMine)
		r.Get("/assignee", h.handleListForAssignee)
		r.Get("/stats", h.handleStats)
		r.Patch("/{taskID}", h.handleUpdate)
	})
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	list, err := h.Service.ListAll(r.Context(), user)
	h.writeList(w, r, list, err)
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	list, err := h.Service.ListForAssignee(r.Context(), user, user.Email)
	h.writeList(w, r, list, err)
}

func (h *Handler) handleListForAssignee(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	email := r.URL.Query().Get("email")
	v := shared.NewValidator()
	v.Required("email", email, "email is required")
	if v.Reject(w, requestID) {
		return
	}
	list, err := h.Service.ListForAssignee(r.Context(), user, email)
	h.writeList(w, r, list, err)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, list []tasks.Task, err error) {
	if err != nil {
		h.fail(w, r, err, "task_list_failed")
		return
	}
	if list == nil {
		list = []tasks.Task{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	stats, err := h.Service.Stats(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "task_stats_failed")
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload tasks.AssignInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	task, err := h.Service.Assign(r.Context(), user, payload)
	if err != nil {
		h.fail(w, r, err, "task_assign_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "task.assign",
		EntityType: "task",
		EntityID:   task.ID,
		After:      payload,
	})
	api.Created(w, task, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload tasks.UpdateInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	taskID := chi.URLParam(r, "taskID")
	task, err := h.Service.Update(r.Context(), user, taskID, payload)
	if err != nil {
		h.fail(w, r, err, "task_update_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "task.update",
		EntityType: "task",
		EntityID:   taskID,
		After:      payload,
	})
	api.Success(w, task, requestID)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, access.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, tasks.ErrTaskNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "task not found", requestID)
	case errors.Is(err, tasks.ErrTaskCompleted):
		api.Fail(w, http.StatusConflict, "task_completed", "completed tasks cannot change", requestID)
	case errors.Is(err, tasks.ErrUnknownAssignee):
		api.Fail(w, http.StatusUnprocessableEntity, "unknown_assignee", "no employee has that email", requestID)
	case errors.Is(err, tasks.ErrInvalidStatus), errors.Is(err, tasks.ErrTitleRequired),
		errors.Is(err, tasks.ErrAssigneeRequired), errors.Is(err, tasks.ErrInvalidDueDate),
		errors.Is(err, tasks.ErrNotesTooLong):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		slog.Warn("task request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "task request failed", requestID)
	}
}
