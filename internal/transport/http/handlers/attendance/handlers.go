package attendancehandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/attendance"
	"hrms/internal/domain/audit"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type AttendanceService interface {
	Mark(ctx context.Context, actor access.Actor, date, employeeID, status string) (attendance.Entry, error)
	Reset(ctx context.Context, actor access.Actor, date, employeeID string) error
	Entry(ctx context.Context, actor access.Actor, date, employeeID string) (attendance.Entry, bool, error)
	ForDate(ctx context.Context, actor access.Actor, date string) (map[string]attendance.Status, error)
	History(ctx context.Context, actor access.Actor, employeeID string, limit int) ([]attendance.Entry, error)
	Summary(ctx context.Context, actor access.Actor, employeeID string) (attendance.Summary, error)
}

type Handler struct {
	Service AttendanceService
	Audit   shared.AuditRecorder
}

func NewHandler(service AttendanceService, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleForDate)
		r.Get("/employees/{employeeID}/history", h.handleHistory)
		r.Get("/employees/{employeeID}/summary", h.handleSummary)
		r.Get("/{date}/{employeeID}", h.handleEntry)
		r.Put("/{date}/{employeeID}", h.handleMark)
		r.Delete("/{date}/{employeeID}", h.handleReset)
	})
}

type markRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleForDate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	date := r.URL.Query().Get("date")
	v := shared.NewValidator()
	v.Date("date", date)
	if v.Reject(w, requestID) {
		return
	}
	marks, err := h.Service.ForDate(r.Context(), user, date)
	if err != nil {
		h.fail(w, r, err, "attendance_list_failed")
		return
	}
	api.Success(w, marks, requestID)
}

func (h *Handler) handleEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	entry, found, err := h.Service.Entry(r.Context(), user, chi.URLParam(r, "date"), chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err, "attendance_get_failed")
		return
	}
	if !found {
		api.Fail(w, http.StatusNotFound, "not_marked", "attendance not marked", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entry, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload markRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	v.Enum("status", payload.Status, []string{"present", "absent", "leave"}, "must be present, absent or leave")
	v.Required("status", payload.Status, "status is required")
	if v.Reject(w, requestID) {
		return
	}

	entry, err := h.Service.Mark(r.Context(), user, chi.URLParam(r, "date"), chi.URLParam(r, "employeeID"), payload.Status)
	if err != nil {
		h.fail(w, r, err, "attendance_mark_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "attendance.mark",
		EntityType: "attendance",
		EntityID:   entry.Date + "_" + entry.EmployeeID,
		After:      payload,
	})
	api.Success(w, entry, requestID)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	date, employeeID := chi.URLParam(r, "date"), chi.URLParam(r, "employeeID")
	if err := h.Service.Reset(r.Context(), user, date, employeeID); err != nil {
		h.fail(w, r, err, "attendance_reset_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "attendance.reset",
		EntityType: "attendance",
		EntityID:   date + "_" + employeeID,
	})
	api.Success(w, map[string]bool{"reset": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	entries, err := h.Service.History(r.Context(), user, chi.URLParam(r, "employeeID"), limit)
	if err != nil {
		h.fail(w, r, err, "attendance_history_failed")
		return
	}
	if entries == nil {
		entries = []attendance.Entry{}
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	summary, err := h.Service.Summary(r.Context(), user, chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err, "attendance_summary_failed")
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, access.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, attendance.ErrEntryNotFound):
		api.Fail(w, http.StatusNotFound, "not_marked", "attendance not marked", requestID)
	case errors.Is(err, attendance.ErrUnknownEmployee):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, attendance.ErrInvalidStatus), errors.Is(err, attendance.ErrInvalidDate), errors.Is(err, attendance.ErrEmployeeID):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		slog.Warn("attendance request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "attendance request failed", requestID)
	}
}
