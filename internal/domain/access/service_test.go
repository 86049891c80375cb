package access

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hrms/internal/platform/changefeed"
)

type fakeStore struct {
	mu        sync.Mutex
	roles     map[string]string
	flags     *Flags
	creates   int
	getErr    error
	flagsErr  error
	roleReads int
}

func newFakeStore() *fakeStore {
	return &fakeStore{roles: map[string]string{}}
}

func (f *fakeStore) GetRole(_ context.Context, accountID string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleReads++
	if f.getErr != nil {
		return "", false, f.getErr
	}
	raw, ok := f.roles[accountID]
	return raw, ok, nil
}

func (f *fakeStore) CreateDefaultRole(_ context.Context, accountID string, role Role) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.roles[accountID]; ok {
		return false, nil
	}
	f.roles[accountID] = role.String()
	f.creates++
	return true, nil
}

func (f *fakeStore) UpsertRole(_ context.Context, accountID string, role Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[accountID] = role.String()
	return nil
}

func (f *fakeStore) ListRoles(_ context.Context) ([]RoleAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RoleAssignment
	for id, raw := range f.roles {
		out = append(out, RoleAssignment{AccountID: id, Role: Role(raw)})
	}
	return out, nil
}

func (f *fakeStore) GetFlags(_ context.Context) (Flags, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.flagsErr != nil {
		return Flags{}, false, f.flagsErr
	}
	if f.flags == nil {
		return Flags{}, false, nil
	}
	return *f.flags, true, nil
}

func (f *fakeStore) MergeFlags(_ context.Context, patch FlagsPatch, defaults Flags) (Flags, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	base := defaults
	if f.flags != nil {
		base = *f.flags
	}
	merged := patch.Apply(base)
	f.flags = &merged
	return merged, nil
}

var admin = Actor{AccountID: "admin-1", Role: RoleAdmin}

func TestResolveRoleCreatesDefaultOnce(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, changefeed.NewHub(), nil)

	var wg sync.WaitGroup
	results := make([]Role, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.ResolveRole(context.Background(), "acct-1")
		}(i)
	}
	wg.Wait()

	for i, role := range results {
		if role != RoleEmployee {
			t.Fatalf("result %d = %q, want employee", i, role)
		}
	}
	if store.creates != 1 {
		t.Fatalf("expected exactly one role document, got %d creations", store.creates)
	}
	if store.roles["acct-1"] != "employee" {
		t.Fatalf("expected stored role employee, got %q", store.roles["acct-1"])
	}
}

func TestResolveRoleFailsClosed(t *testing.T) {
	store := newFakeStore()
	store.roles["acct-bad"] = "superuser"
	svc := NewService(store, changefeed.NewHub(), nil)

	if got := svc.ResolveRole(context.Background(), "acct-bad"); got != RoleEmployee {
		t.Fatalf("malformed role resolved to %q, want employee", got)
	}

	store.getErr = errors.New("connection reset")
	store.roles["acct-admin"] = "admin"
	if got := svc.ResolveRole(context.Background(), "acct-admin"); got != RoleEmployee {
		t.Fatalf("read failure resolved to %q, want employee", got)
	}
}

func TestSetRoleNormalizesBeforeAuthorization(t *testing.T) {
	store := newFakeStore()
	hub := changefeed.NewHub()
	svc := NewService(store, hub, nil)
	ctx := context.Background()

	if got := svc.ResolveRole(ctx, "acct-2"); got != RoleEmployee {
		t.Fatalf("first resolution = %q, want employee", got)
	}

	var observed []Role
	sub := svc.WatchRole("acct-2", func(role Role) { observed = append(observed, role) })
	defer sub.Close()

	role, err := svc.SetRole(ctx, admin, "acct-2", "HR ")
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if role != RoleHR || store.roles["acct-2"] != "hr" {
		t.Fatalf("expected normalized hr, got %q stored %q", role, store.roles["acct-2"])
	}
	if got := svc.ResolveRole(ctx, "acct-2"); got != RoleHR {
		t.Fatalf("resolution after change = %q, want hr", got)
	}
	if len(observed) != 1 || observed[0] != RoleHR {
		t.Fatalf("expected watcher to observe hr, got %v", observed)
	}
	if svc.Decide(ctx, RoleHR, RatePerformance, false) != Allow {
		t.Fatal("expected resolved hr role to rate others")
	}
}

func TestSetRoleRejectsUnknownAndNonAdmin(t *testing.T) {
	svc := NewService(newFakeStore(), changefeed.NewHub(), nil)
	ctx := context.Background()

	if _, err := svc.SetRole(ctx, admin, "acct-3", "owner"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	hr := Actor{AccountID: "hr-1", Role: RoleHR}
	if _, err := svc.SetRole(ctx, hr, "acct-3", "admin"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestWatchRoleCloseTwiceStopsCallbacks(t *testing.T) {
	svc := NewService(newFakeStore(), changefeed.NewHub(), nil)
	calls := 0
	sub := svc.WatchRole("acct-4", func(Role) { calls++ })
	sub.Close()
	sub.Close()

	if _, err := svc.SetRole(context.Background(), admin, "acct-4", "admin"); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no callbacks after close, got %d", calls)
	}
}

func TestEffectiveFlagsDefaultsAndMerge(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, changefeed.NewHub(), nil)
	ctx := context.Background()

	if got := svc.EffectiveFlags(ctx); got != DefaultFlags() {
		t.Fatalf("missing config = %+v, want defaults", got)
	}

	on := true
	off := false
	tests := []struct {
		name  string
		patch FlagsPatch
		want  Flags
	}{
		{name: "grant payroll", patch: FlagsPatch{ManagePayroll: &on}, want: Flags{true, true, true, false}},
		{name: "withdraw viewing", patch: FlagsPatch{ViewEmployees: &off}, want: Flags{false, true, true, false}},
		{name: "two fields", patch: FlagsPatch{ApproveTransfers: &on, MarkAttendance: &off}, want: Flags{false, false, true, true}},
		{name: "all fields", patch: FlagsPatch{&on, &on, &off, &off}, want: Flags{true, true, false, false}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			updated, err := svc.UpdateFlags(ctx, admin, tc.patch)
			if err != nil {
				t.Fatalf("UpdateFlags: %v", err)
			}
			if updated != tc.want {
				t.Fatalf("UpdateFlags() = %+v, want %+v", updated, tc.want)
			}
			if got := svc.EffectiveFlags(ctx); got != tc.want {
				t.Fatalf("EffectiveFlags() = %+v, want %+v", got, tc.want)
			}
		})
	}

	if _, err := svc.UpdateFlags(ctx, admin, FlagsPatch{}); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}
}

func TestEffectiveFlagsReadFailureUsesDefaults(t *testing.T) {
	store := newFakeStore()
	stored := Flags{true, true, true, true}
	store.flags = &stored
	store.flagsErr = errors.New("timeout")
	svc := NewService(store, changefeed.NewHub(), nil)

	if got := svc.EffectiveFlags(context.Background()); got != DefaultFlags() {
		t.Fatalf("EffectiveFlags() = %+v, want defaults", got)
	}
}

func TestCheckUsesStoredFlagsAndRecordsDenials(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, changefeed.NewHub(), nil)
	recorder := &denialCounter{}
	svc.SetDenialRecorder(recorder)
	ctx := context.Background()
	hr := Actor{AccountID: "hr-1", Role: RoleHR, EmployeeID: "emp-hr"}

	if err := svc.Check(ctx, hr, EditPayroll, false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected payroll edit denied by default, got %v", err)
	}
	if svc.Allows(ctx, hr, EditPayroll, false) {
		t.Fatal("Allows() disagrees with Check()")
	}
	on := true
	if _, err := svc.UpdateFlags(ctx, admin, FlagsPatch{ManagePayroll: &on}); err != nil {
		t.Fatalf("UpdateFlags: %v", err)
	}
	if err := svc.Check(ctx, hr, EditPayroll, false); err != nil {
		t.Fatalf("expected payroll edit allowed after grant, got %v", err)
	}
	if recorder.counts["payroll.edit"] != 1 {
		t.Fatalf("expected one recorded denial, got %+v", recorder.counts)
	}
}

func TestWatchFlagsReceivesUpdates(t *testing.T) {
	svc := NewService(newFakeStore(), changefeed.NewHub(), nil)
	var got Flags
	sub := svc.WatchFlags(func(flags Flags) { got = flags })
	defer sub.Close()

	on := true
	if _, err := svc.UpdateFlags(context.Background(), admin, FlagsPatch{ApproveTransfers: &on}); err != nil {
		t.Fatalf("UpdateFlags: %v", err)
	}
	if !got.ApproveTransfers || !got.ViewEmployees {
		t.Fatalf("unexpected watched flags %+v", got)
	}
}

type denialCounter struct {
	counts map[string]int
}

func (d *denialCounter) RecordDenial(category string) {
	if d.counts == nil {
		d.counts = map[string]int{}
	}
	d.counts[category]++
}
