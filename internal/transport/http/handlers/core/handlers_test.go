package corehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/core"
	"hrms/internal/transport/http/middleware"
)

type stubEmployees struct {
	created []core.EmployeeInput
	account *core.NewAccount
}

func (s *stubEmployees) List(_ context.Context, actor access.Actor, _ string) ([]core.Employee, error) {
	if actor.Role == access.RoleEmployee && actor.EmployeeID == "" {
		return nil, access.ErrForbidden
	}
	return nil, nil
}

func (s *stubEmployees) Get(_ context.Context, _ access.Actor, id string) (core.Employee, error) {
	if id == "emp-1" {
		return core.Employee{ID: id, Name: "Asha"}, nil
	}
	return core.Employee{}, core.ErrEmployeeNotFound
}

func (s *stubEmployees) Create(_ context.Context, actor access.Actor, in core.EmployeeInput, account *core.NewAccount) (core.Employee, error) {
	if actor.Role != access.RoleAdmin {
		return core.Employee{}, access.ErrForbidden
	}
	if in.Name == "" {
		return core.Employee{}, core.ErrNameRequired
	}
	s.created = append(s.created, in)
	s.account = account
	return core.Employee{ID: "emp-new", Name: in.Name}, nil
}

func (s *stubEmployees) Update(context.Context, access.Actor, string, core.EmployeeInput) (core.Employee, error) {
	return core.Employee{}, core.ErrDuplicateEmployee
}

func (s *stubEmployees) Delete(context.Context, access.Actor, string) error {
	return nil
}

func (s *stubEmployees) Headcount(context.Context) (core.Headcount, error) {
	return core.Headcount{Total: 3}, nil
}

type memoryAudit struct{ entries []audit.Entry }

func (m *memoryAudit) Record(_ context.Context, entry audit.Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func serve(h *Handler, actor access.Actor, method, path string, body any) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(middleware.WithUser(req.Context(), actor))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateEmployeeWithAccount(t *testing.T) {
	svc := &stubEmployees{}
	recorder := &memoryAudit{}
	h := NewHandler(svc, recorder)
	admin := access.Actor{AccountID: "acct-admin", Role: access.RoleAdmin}

	rec := serve(h, admin, http.MethodPost, "/employees", map[string]any{
		"name":          "Ravi",
		"department":    "Sanitation",
		"email":         "ravi@city.gov",
		"createAccount": true,
		"password":      "Secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.created) != 1 || svc.created[0].Department != "Sanitation" {
		t.Fatalf("unexpected create input: %+v", svc.created)
	}
	if svc.account == nil || svc.account.Password != "Secret123" {
		t.Fatal("expected account request to be forwarded")
	}
	if len(recorder.entries) != 1 || recorder.entries[0].Action != "employee.create" || recorder.entries[0].EntityID != "emp-new" {
		t.Fatalf("unexpected audit entries: %+v", recorder.entries)
	}
}

func TestEmployeeErrorMapping(t *testing.T) {
	h := NewHandler(&stubEmployees{}, nil)
	hr := access.Actor{AccountID: "acct-hr", Role: access.RoleHR}
	unlinked := access.Actor{AccountID: "acct-x", Role: access.RoleEmployee}

	tests := []struct {
		name   string
		actor  access.Actor
		method string
		path   string
		body   any
		status int
	}{
		{"create forbidden", hr, http.MethodPost, "/employees", map[string]string{"name": "X"}, http.StatusForbidden},
		{"missing name", access.Actor{Role: access.RoleAdmin}, http.MethodPost, "/employees", map[string]string{}, http.StatusBadRequest},
		{"not found", hr, http.MethodGet, "/employees/emp-2", nil, http.StatusNotFound},
		{"duplicate", hr, http.MethodPut, "/employees/emp-1", map[string]string{"name": "X"}, http.StatusConflict},
		{"list forbidden", unlinked, http.MethodGet, "/employees", nil, http.StatusForbidden},
		{"headcount open", unlinked, http.MethodGet, "/employees/headcount", nil, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, tc.actor, tc.method, tc.path, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestListReturnsEmptyArray(t *testing.T) {
	h := NewHandler(&stubEmployees{}, nil)
	rec := serve(h, access.Actor{AccountID: "a", Role: access.RoleAdmin}, http.MethodGet, "/employees", nil)
	var body struct {
		Data []core.Employee `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data == nil {
		t.Fatal("expected an empty array rather than null")
	}
}
