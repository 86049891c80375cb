package core

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
	"hrms/internal/domain/auth"
	"hrms/internal/platform/changefeed"
)

type fakeStore struct {
	mu        sync.Mutex
	employees map[string]Employee
	roles     map[string]string
	hashes    map[string]string
	calls     int
	seq       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{employees: map[string]Employee{}, roles: map[string]string{}, hashes: map[string]string{}}
}

func (f *fakeStore) next() time.Time {
	f.seq++
	return time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
}

func (f *fakeStore) ListEmployees(_ context.Context, search string) ([]Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []Employee
	for _, emp := range f.employees {
		if MatchesSearch(emp, search) {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) GetEmployee(_ context.Context, employeeID string) (Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	emp, ok := f.employees[employeeID]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeStore) EmployeeByAccount(_ context.Context, accountID string) (Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, emp := range f.employees {
		if emp.AccountID == accountID {
			return emp, nil
		}
	}
	return Employee{}, ErrEmployeeNotFound
}

func (f *fakeStore) UnlinkedEmployeeByEmail(_ context.Context, email string) (Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, emp := range f.employees {
		if emp.Email != "" && emp.Email == email && emp.AccountID == "" {
			return emp, nil
		}
	}
	return Employee{}, ErrEmployeeNotFound
}

func (f *fakeStore) insert(in EmployeeInput, accountID string) (Employee, error) {
	if in.Email != "" {
		for _, emp := range f.employees {
			if emp.Email == in.Email {
				return Employee{}, ErrDuplicateEmployee
			}
		}
	}
	at := f.next()
	emp := Employee{
		ID:           fmt.Sprintf("emp-%d", f.seq),
		Name:         in.Name,
		Department:   in.Department,
		EmployeeCode: in.EmployeeCode,
		Post:         in.Post,
		Email:        in.Email,
		AccountID:    accountID,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	f.employees[emp.ID] = emp
	return emp, nil
}

func (f *fakeStore) CreateEmployee(_ context.Context, in EmployeeInput) (Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.insert(in, "")
}

func (f *fakeStore) CreateEmployeeWithAccount(_ context.Context, in EmployeeInput, passwordHash, role string) (Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	accountID := fmt.Sprintf("acct-%d", len(f.roles)+1)
	emp, err := f.insert(in, accountID)
	if err != nil {
		return Employee{}, err
	}
	f.roles[accountID] = role
	f.hashes[accountID] = passwordHash
	return emp, nil
}

func (f *fakeStore) UpdateEmployee(_ context.Context, employeeID string, in EmployeeInput) (Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	emp, ok := f.employees[employeeID]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	emp.Name, emp.Department, emp.EmployeeCode, emp.Post, emp.Email = in.Name, in.Department, in.EmployeeCode, in.Post, in.Email
	emp.UpdatedAt = f.next()
	f.employees[employeeID] = emp
	return emp, nil
}

func (f *fakeStore) DeleteEmployee(_ context.Context, employeeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, ok := f.employees[employeeID]; !ok {
		return ErrEmployeeNotFound
	}
	delete(f.employees, employeeID)
	return nil
}

func (f *fakeStore) DepartmentCounts(_ context.Context) ([]DepartmentCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, emp := range f.employees {
		counts[emp.Department]++
	}
	var out []DepartmentCount
	for dept, n := range counts {
		out = append(out, DepartmentCount{Department: dept, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Department < out[j].Department
		}
		return out[i].Count > out[j].Count
	})
	return out, nil
}

func newTestService() (*Service, *fakeStore, *accesstest.Policy, *changefeed.Hub) {
	store := newFakeStore()
	policy := accesstest.New()
	hub := changefeed.NewHub()
	return NewService(store, policy, hub), store, policy, hub
}

func TestCreateListNewestFirst(t *testing.T) {
	svc, _, _, hub := newTestService()
	ctx := context.Background()
	admin := accesstest.Admin()

	var events []changefeed.Event
	sub := hub.Subscribe(changefeed.Filter{Collection: CollectionEmployees}, func(evt changefeed.Event) { events = append(events, evt) })
	defer sub.Close()

	for _, name := range []string{"Raj Kumar", "Sonia"} {
		if _, err := svc.Create(ctx, admin, EmployeeInput{Name: name, Department: "IT"}, nil); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}
	list, err := svc.List(ctx, admin, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Sonia" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if len(events) != 2 || events[0].Op != changefeed.OpCreate {
		t.Fatalf("expected two create events, got %+v", events)
	}
}

func TestCreateWithAccountStoresEmployeeRole(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	emp, err := svc.Create(ctx, accesstest.Admin(), EmployeeInput{Name: "Amit", Department: "Sanitation", Email: " Amit@MCD.gov.in "}, &NewAccount{Password: "Password123"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if emp.AccountID == "" || emp.Email != "amit@mcd.gov.in" {
		t.Fatalf("unexpected employee %+v", emp)
	}
	if store.roles[emp.AccountID] != "employee" {
		t.Fatalf("expected employee role, got %q", store.roles[emp.AccountID])
	}
	if err := auth.CheckPassword(store.hashes[emp.AccountID], "Password123"); err != nil {
		t.Fatalf("stored hash does not match: %v", err)
	}

	if _, err := svc.Create(ctx, accesstest.Admin(), EmployeeInput{Name: "NoMail"}, &NewAccount{Password: "Password123"}); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("expected ErrEmailRequired, got %v", err)
	}
	if _, err := svc.Create(ctx, accesstest.Admin(), EmployeeInput{Name: "Weak", Email: "weak@mcd.gov.in"}, &NewAccount{Password: "abc"}); !errors.Is(err, auth.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if _, err := svc.Create(ctx, accesstest.Admin(), EmployeeInput{Name: "Dup", Email: "amit@mcd.gov.in"}, nil); !errors.Is(err, ErrDuplicateEmployee) {
		t.Fatalf("expected ErrDuplicateEmployee, got %v", err)
	}
}

func TestManageEmployeesIsAdminOnly(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	before := store.calls

	for _, actor := range []access.Actor{accesstest.HR(), accesstest.Employee("emp-1", "e@mcd.gov.in")} {
		if _, err := svc.Create(ctx, actor, EmployeeInput{Name: "X"}, nil); !errors.Is(err, access.ErrForbidden) {
			t.Fatalf("%s create: expected ErrForbidden, got %v", actor.Role, err)
		}
		if _, err := svc.Update(ctx, actor, "emp-1", EmployeeInput{Name: "X"}); !errors.Is(err, access.ErrForbidden) {
			t.Fatalf("%s update: expected ErrForbidden, got %v", actor.Role, err)
		}
		if err := svc.Delete(ctx, actor, "emp-1"); !errors.Is(err, access.ErrForbidden) {
			t.Fatalf("%s delete: expected ErrForbidden, got %v", actor.Role, err)
		}
	}
	if store.calls != before {
		t.Fatal("store was reached by a denied request")
	}
}

func TestListVisibility(t *testing.T) {
	svc, _, policy, _ := newTestService()
	ctx := context.Background()
	admin := accesstest.Admin()

	own, err := svc.Create(ctx, admin, EmployeeInput{Name: "Priya", Department: "Health", EmployeeCode: "E-7", Email: "priya@mcd.gov.in"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, admin, EmployeeInput{Name: "Vikram", Department: "Health"}, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	employee := accesstest.Employee(own.ID, own.Email)
	list, err := svc.List(ctx, employee, "")
	if err != nil || len(list) != 1 || list[0].ID != own.ID {
		t.Fatalf("employee should see only own record, got %+v %v", list, err)
	}
	if list, _ := svc.List(ctx, employee, "vikram"); len(list) != 0 {
		t.Fatalf("search must not leak other records, got %+v", list)
	}
	if _, err := svc.List(ctx, access.Actor{Role: access.RoleEmployee}, ""); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("unlinked employee: expected ErrForbidden, got %v", err)
	}

	hrList, err := svc.List(ctx, accesstest.HR(), "e-7")
	if err != nil || len(hrList) != 1 {
		t.Fatalf("HR search by code: %+v %v", hrList, err)
	}

	policy.Flags.ViewEmployees = false
	if list, err := svc.List(ctx, accesstest.HR(), ""); err != nil || len(list) != 0 {
		t.Fatalf("HR without flag should see only own (absent) record, got %+v %v", list, err)
	}
}

func TestHeadcount(t *testing.T) {
	got := BuildHeadcount([]DepartmentCount{{"IT", 4}, {"Health", 6}, {"Tax", 1}})
	if got.Total != 11 || got.LargestDept != "Health" || got.LargestDeptLen != 6 {
		t.Fatalf("unexpected headcount %+v", got)
	}
	empty := BuildHeadcount(nil)
	if empty.Total != 0 || empty.Departments == nil {
		t.Fatalf("unexpected empty headcount %+v", empty)
	}
}

func TestForAccountFallsBackToEmail(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	emp, err := svc.Create(ctx, accesstest.Admin(), EmployeeInput{Name: "Legacy", Email: "legacy@mcd.gov.in"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := svc.ForAccount(ctx, "acct-unknown", "legacy@mcd.gov.in")
	if err != nil || got.ID != emp.ID {
		t.Fatalf("ForAccount() = %+v, %v", got, err)
	}
	if _, err := svc.ForAccount(ctx, "acct-unknown", ""); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestForAccountSkipsRecordsLinkedElsewhere(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	store.mu.Lock()
	linked, err := store.insert(EmployeeInput{Name: "Owner", Email: "shared@mcd.gov.in"}, "acct-owner")
	store.mu.Unlock()
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := svc.ForAccount(ctx, "acct-intruder", "shared@mcd.gov.in"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound for another account, got %v", err)
	}
	got, err := svc.ForAccount(ctx, "acct-owner", "shared@mcd.gov.in")
	if err != nil || got.ID != linked.ID {
		t.Fatalf("ForAccount() = %+v, %v", got, err)
	}
}
