package transfershandler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/access"
	"hrms/internal/domain/transfers"
	"hrms/internal/transport/http/middleware"
)

type stubTransfers struct {
	requests map[string]transfers.Request
	decided  []string
}

func (s *stubTransfers) Request(_ context.Context, actor access.Actor, in transfers.RequestInput) (transfers.Request, error) {
	if in.ToDepartment == "" {
		return transfers.Request{}, transfers.ErrDestinationNeeded
	}
	req := transfers.Request{ID: "tr-1", EmployeeID: in.EmployeeID, ToDepartment: in.ToDepartment, Status: transfers.StatusPending, RequestedBy: actor.AccountID}
	s.requests[req.ID] = req
	return req, nil
}

func (s *stubTransfers) List(context.Context, access.Actor) ([]transfers.Request, error) {
	return nil, nil
}

func (s *stubTransfers) Decide(_ context.Context, actor access.Actor, id, decision string) (transfers.Request, error) {
	if actor.Role == access.RoleEmployee {
		return transfers.Request{}, access.ErrForbidden
	}
	req, ok := s.requests[id]
	if !ok {
		return transfers.Request{}, transfers.ErrTransferNotFound
	}
	if req.Status != transfers.StatusPending {
		return transfers.Request{}, transfers.ErrInvalidTransition
	}
	status, err := transfers.ParseDecision(decision)
	if err != nil {
		return transfers.Request{}, err
	}
	req.Status = status
	s.requests[id] = req
	s.decided = append(s.decided, id)
	return req, nil
}

func send(router http.Handler, actor access.Actor, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req = req.WithContext(middleware.WithUser(req.Context(), actor))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTransferDecisionIsOneWay(t *testing.T) {
	svc := &stubTransfers{requests: map[string]transfers.Request{}}
	r := chi.NewRouter()
	NewHandler(svc, nil).RegisterRoutes(r)
	admin := access.Actor{AccountID: "acct-admin", Role: access.RoleAdmin}
	employee := access.Actor{AccountID: "acct-1", Role: access.RoleEmployee, EmployeeID: "emp-1"}

	if rec := send(r, employee, http.MethodPost, "/transfers", `{"employeeId":"emp-1","toDepartment":"Health"}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := send(r, employee, http.MethodPost, "/transfers", `{"employeeId":"emp-1"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without destination, got %d", rec.Code)
	}

	cases := []struct {
		name   string
		actor  access.Actor
		body   string
		status int
	}{
		{"employee cannot decide", employee, `{"decision":"approved"}`, http.StatusForbidden},
		{"unknown decision", admin, `{"decision":"maybe"}`, http.StatusBadRequest},
		{"admin approves", admin, `{"decision":"approved"}`, http.StatusOK},
		{"second decision conflicts", admin, `{"decision":"rejected"}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := send(r, tc.actor, http.MethodPost, "/transfers/tr-1/decision", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
	if rec := send(r, admin, http.MethodPost, "/transfers/missing/decision", `{"decision":"approved"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if len(svc.decided) != 1 {
		t.Fatalf("expected exactly one decision, got %v", svc.decided)
	}
}

func TestListNeverReturnsNull(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(&stubTransfers{}, nil).RegisterRoutes(r)
	rec := send(r, access.Actor{AccountID: "acct-1", Role: access.RoleEmployee}, http.MethodGet, "/transfers", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"data":[]`)) {
		t.Fatalf("expected empty list, got %s", rec.Body.String())
	}
}
