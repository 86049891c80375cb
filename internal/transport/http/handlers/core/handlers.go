package corehandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type EmployeeService interface {
	List(ctx context.Context, actor access.Actor, search string) ([]core.Employee, error)
	Get(ctx context.Context, actor access.Actor, employeeID string) (core.Employee, error)
	Create(ctx context.Context, actor access.Actor, in core.EmployeeInput, account *core.NewAccount) (core.Employee, error)
	Update(ctx context.Context, actor access.Actor, employeeID string, in core.EmployeeInput) (core.Employee, error)
	Delete(ctx context.Context, actor access.Actor, employeeID string) error
	Headcount(ctx context.Context) (core.Headcount, error)
}

type Handler struct {
	Service EmployeeService
	Audit   shared.AuditRecorder
}

func NewHandler(service EmployeeService, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/headcount", h.handleHeadcount)
		r.Get("/{employeeID}", h.handleGet)
		r.Put("/{employeeID}", h.handleUpdate)
		r.Delete("/{employeeID}", h.handleDelete)
	})
}

type createRequest struct {
	core.EmployeeInput
	CreateAccount bool   `json:"createAccount"`
	Password      string `json:"password"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	list, err := h.Service.List(r.Context(), user, r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, r, err, "employee_list_failed")
		return
	}
	if list == nil {
		list = []core.Employee{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err, "employee_get_failed")
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload createRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	var account *core.NewAccount
	if payload.CreateAccount {
		account = &core.NewAccount{Password: payload.Password}
	}

	emp, err := h.Service.Create(r.Context(), user, payload.EmployeeInput, account)
	if err != nil {
		h.fail(w, r, err, "employee_create_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "employee.create",
		EntityType: "employee",
		EntityID:   emp.ID,
		After:      payload.EmployeeInput,
	})
	api.Created(w, emp, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload core.EmployeeInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	emp, err := h.Service.Update(r.Context(), user, employeeID, payload)
	if err != nil {
		h.fail(w, r, err, "employee_update_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "employee.update",
		EntityType: "employee",
		EntityID:   employeeID,
		After:      payload,
	})
	api.Success(w, emp, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.Delete(r.Context(), user, employeeID); err != nil {
		h.fail(w, r, err, "employee_delete_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "employee.delete",
		EntityType: "employee",
		EntityID:   employeeID,
	})
	api.Success(w, map[string]string{"id": employeeID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHeadcount(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.Headcount(r.Context())
	if err != nil {
		h.fail(w, r, err, "headcount_failed")
		return
	}
	api.Success(w, counts, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, access.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, core.ErrDuplicateEmployee), errors.Is(err, auth.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "duplicate_employee", err.Error(), requestID)
	case errors.Is(err, core.ErrNameRequired), errors.Is(err, core.ErrEmailRequired),
		errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		slog.Warn("employee request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "employee request failed", requestID)
	}
}
