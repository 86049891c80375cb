package payrollhandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/payroll"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type PayrollService interface {
	Set(ctx context.Context, actor access.Actor, employeeID string, in payroll.Input) (payroll.Record, error)
	Get(ctx context.Context, actor access.Actor, employeeID string) (payroll.Record, bool, error)
	List(ctx context.Context, actor access.Actor) ([]payroll.Listed, error)
	Payslip(ctx context.Context, actor access.Actor, employeeID string, month time.Time) ([]byte, error)
}

type Handler struct {
	Service PayrollService
	Audit   shared.AuditRecorder
}

func NewHandler(service PayrollService, auditor shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/{employeeID}", h.handleGet)
		r.Put("/{employeeID}", h.handleSet)
		r.Get("/{employeeID}/payslip", h.handlePayslip)
	})
}

type recordResponse struct {
	payroll.Record
	Annual float64 `json:"annual"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	list, err := h.Service.List(r.Context(), user)
	if err != nil {
		h.fail(w, r, err, "payroll_list_failed")
		return
	}
	if list == nil {
		list = []payroll.Listed{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	record, found, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "employeeID"))
	if err != nil {
		h.fail(w, r, err, "payroll_get_failed")
		return
	}
	if !found {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll record not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, recordResponse{Record: record, Annual: record.Annual()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload payroll.Input
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}
	employeeID := chi.URLParam(r, "employeeID")
	record, err := h.Service.Set(r.Context(), user, employeeID, payload)
	if err != nil {
		h.fail(w, r, err, "payroll_set_failed")
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{
		ActorID:    user.AccountID,
		Action:     "payroll.set",
		EntityType: "payroll",
		EntityID:   employeeID,
		After:      payload,
	})
	api.Success(w, recordResponse{Record: record, Annual: record.Annual()}, requestID)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	v := shared.NewValidator()
	month := v.Month("month", r.URL.Query().Get("month"), time.Now().UTC())
	if v.Reject(w, requestID) {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	pdf, err := h.Service.Payslip(r.Context(), user, employeeID, month)
	if err != nil {
		h.fail(w, r, err, "payslip_failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%s-%s.pdf", employeeID, month.Format(shared.MonthLayout)))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("payslip write failed", "err", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, code string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, access.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, payroll.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll record not found", requestID)
	case errors.Is(err, payroll.ErrUnknownEmployee):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
	case errors.Is(err, payroll.ErrNegativeAmount), errors.Is(err, payroll.ErrEmployeeID):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), requestID)
	default:
		slog.Warn("payroll request failed", "code", code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, "payroll request failed", requestID)
	}
}
