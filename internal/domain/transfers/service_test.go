package transfers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"hrms/internal/domain/access"
	"hrms/internal/domain/access/accesstest"
	"hrms/internal/domain/core"
	"hrms/internal/platform/changefeed"
)

type fakeDirectory map[string]core.Employee

func (d fakeDirectory) GetEmployee(_ context.Context, employeeID string) (core.Employee, error) {
	emp, ok := d[employeeID]
	if !ok {
		return core.Employee{}, core.ErrEmployeeNotFound
	}
	return emp, nil
}

type fakeStore struct {
	mu       sync.Mutex
	requests map[string]Request
	seq      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{requests: map[string]Request{}}
}

func (f *fakeStore) Create(_ context.Context, req Request) (Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	req.ID = fmt.Sprintf("tr-%d", f.seq)
	req.Status = StatusPending
	req.RequestedAt = time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return Request{}, ErrTransferNotFound
	}
	return req, nil
}

func (f *fakeStore) List(_ context.Context) ([]Request, error) {
	return f.filter(func(Request) bool { return true }), nil
}

func (f *fakeStore) ListForEmployee(_ context.Context, employeeID string) ([]Request, error) {
	return f.filter(func(req Request) bool { return req.EmployeeID == employeeID }), nil
}

func (f *fakeStore) filter(keep func(Request) bool) []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Request
	for _, req := range f.requests {
		if keep(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out
}

func (f *fakeStore) Decide(_ context.Context, id string, status Status, decidedBy string) (Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return Request{}, ErrTransferNotFound
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidTransition
	}
	now := time.Now().UTC()
	req.Status, req.DecidedBy, req.DecidedAt = status, decidedBy, &now
	f.requests[id] = req
	return req, nil
}

func newTestService() (*Service, *accesstest.Policy, *changefeed.Hub) {
	directory := fakeDirectory{
		"emp-1":  {ID: "emp-1", Name: "Asha", Department: "Health"},
		"emp-2":  {ID: "emp-2", Name: "Ravi", Department: "Tax"},
		"emp-hr": {ID: "emp-hr", Name: "Meera", Department: "HR"},
	}
	policy := accesstest.New()
	hub := changefeed.NewHub()
	return NewService(newFakeStore(), directory, policy, hub), policy, hub
}

func TestRequestSnapshotsEmployee(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	self := accesstest.Employee("emp-1", "asha@mcd.gov.in")

	req, err := svc.Request(ctx, self, RequestInput{ToDepartment: " Education ", Reason: "closer to home"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if req.EmployeeName != "Asha" || req.FromDepartment != "Health" || req.ToDepartment != "Education" || req.Status != StatusPending {
		t.Fatalf("unexpected request %+v", req)
	}

	if _, err := svc.Request(ctx, self, RequestInput{EmployeeID: "emp-2", ToDepartment: "Education"}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("filing for another employee: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Request(ctx, self, RequestInput{ToDepartment: "health"}); !errors.Is(err, ErrSameDepartment) {
		t.Fatalf("expected ErrSameDepartment, got %v", err)
	}
	if _, err := svc.Request(ctx, accesstest.Admin(), RequestInput{EmployeeID: "emp-2", ToDepartment: "Health"}); err != nil {
		t.Fatalf("admin filing for employee: %v", err)
	}
}

func TestListVisibility(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Request(ctx, accesstest.Employee("emp-1", ""), RequestInput{ToDepartment: "Tax"}); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := svc.Request(ctx, accesstest.Employee("emp-2", ""), RequestInput{ToDepartment: "Health"}); err != nil {
		t.Fatalf("Request: %v", err)
	}

	own, err := svc.List(ctx, accesstest.Employee("emp-1", ""))
	if err != nil || len(own) != 1 || own[0].EmployeeID != "emp-1" {
		t.Fatalf("employee list = %+v, %v", own, err)
	}
	all, err := svc.List(ctx, accesstest.HR())
	if err != nil || len(all) != 2 {
		t.Fatalf("HR list = %+v, %v", all, err)
	}
	if _, err := svc.List(ctx, access.Actor{Role: access.RoleEmployee}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("unlinked employee: expected ErrForbidden, got %v", err)
	}
}

func TestDecideIsOneWay(t *testing.T) {
	svc, policy, hub := newTestService()
	ctx := context.Background()
	req, err := svc.Request(ctx, accesstest.Employee("emp-1", ""), RequestInput{ToDepartment: "Tax"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	var statuses []string
	sub := hub.Subscribe(changefeed.Filter{Collection: CollectionTransfers, DocumentID: req.ID}, func(evt changefeed.Event) {
		statuses = append(statuses, evt.Attrs["status"])
	})
	defer sub.Close()

	if _, err := svc.Decide(ctx, accesstest.HR(), req.ID, "approved"); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("HR without flag: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Decide(ctx, accesstest.Admin(), req.ID, "pending"); !errors.Is(err, ErrInvalidDecision) {
		t.Fatalf("expected ErrInvalidDecision, got %v", err)
	}

	policy.Flags.ApproveTransfers = true
	decided, err := svc.Decide(ctx, accesstest.HR(), req.ID, "Approved")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != StatusApproved || decided.DecidedAt == nil {
		t.Fatalf("unexpected decided request %+v", decided)
	}
	if _, err := svc.Decide(ctx, accesstest.Admin(), req.ID, "rejected"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second decision: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Decide(ctx, accesstest.Admin(), "tr-missing", "rejected"); !errors.Is(err, ErrTransferNotFound) {
		t.Fatalf("expected ErrTransferNotFound, got %v", err)
	}
	if len(statuses) != 1 || statuses[0] != "approved" {
		t.Fatalf("unexpected events %v", statuses)
	}
}
