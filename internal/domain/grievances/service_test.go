package grievances

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hrms/internal/domain/access"
	"hrms/internal/domain/access/accesstest"
	"hrms/internal/platform/changefeed"
)

type fakeStore struct {
	mu    sync.Mutex
	items map[string]Grievance
	order []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]Grievance{}}
}

func (f *fakeStore) Create(_ context.Context, g Grievance) (Grievance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g.ID = fmt.Sprintf("gr-%d", len(f.order)+1)
	g.Status = StatusPending
	g.SubmittedAt = time.Now().UTC()
	f.items[g.ID] = g
	f.order = append([]string{g.ID}, f.order...)
	return g, nil
}

func (f *fakeStore) List(ctx context.Context) ([]Grievance, error) {
	return f.ListBySubmitter(ctx, "")
}

func (f *fakeStore) ListBySubmitter(_ context.Context, accountID string) ([]Grievance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Grievance
	for _, id := range f.order {
		if g := f.items[id]; accountID == "" || g.SubmittedBy == accountID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) Resolve(_ context.Context, id, resolvedBy string) (Grievance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.items[id]
	if !ok {
		return Grievance{}, ErrGrievanceNotFound
	}
	if g.Status == StatusResolved {
		return Grievance{}, ErrAlreadyResolved
	}
	now := time.Now().UTC()
	g.Status, g.ResolvedBy, g.ResolvedAt = StatusResolved, resolvedBy, &now
	f.items[id] = g
	return g, nil
}

func TestFileAndList(t *testing.T) {
	svc := NewService(newFakeStore(), accesstest.New(), nil)
	ctx := context.Background()
	one := accesstest.Employee("emp-1", "one@mcd.gov.in")
	two := accesstest.Employee("emp-2", "two@mcd.gov.in")

	g, err := svc.File(ctx, one, Input{Title: " Unsafe ward ", Description: "lighting"})
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if g.Category != DefaultCategory || g.SubmitterEmail != "one@mcd.gov.in" || g.Title != "Unsafe ward" {
		t.Fatalf("unexpected grievance %+v", g)
	}
	if _, err := svc.File(ctx, two, Input{Title: "Late salary", Category: "Payroll"}); err != nil {
		t.Fatalf("File: %v", err)
	}
	if _, err := svc.File(ctx, accesstest.HR(), Input{Title: "HR concern"}); err != nil {
		t.Fatalf("HR File: %v", err)
	}
	if _, err := svc.File(ctx, two, Input{Title: "  "}); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}

	own, err := svc.List(ctx, one)
	if err != nil || len(own) != 1 || own[0].ID != g.ID {
		t.Fatalf("own list = %+v, %v", own, err)
	}
	hrOwn, err := svc.List(ctx, accesstest.HR())
	if err != nil || len(hrOwn) != 1 {
		t.Fatalf("HR sees only own grievances, got %+v, %v", hrOwn, err)
	}
	all, err := svc.List(ctx, accesstest.Admin())
	if err != nil || len(all) != 3 {
		t.Fatalf("admin list = %+v, %v", all, err)
	}
}

func TestResolveIsAdminOnlyAndOneWay(t *testing.T) {
	hub := changefeed.NewHub()
	svc := NewService(newFakeStore(), accesstest.New(), hub)
	ctx := context.Background()
	g, err := svc.File(ctx, accesstest.Employee("emp-1", ""), Input{Title: "Leave denied"})
	if err != nil {
		t.Fatalf("File: %v", err)
	}

	resolvedEvents := 0
	sub := hub.Subscribe(changefeed.Filter{Collection: CollectionGrievances, DocumentID: g.ID}, func(evt changefeed.Event) {
		if evt.Attrs["status"] == string(StatusResolved) {
			resolvedEvents++
		}
	})
	defer sub.Close()

	for _, actor := range []access.Actor{accesstest.HR(), accesstest.Employee("emp-1", "")} {
		if _, err := svc.Resolve(ctx, actor, g.ID); !errors.Is(err, access.ErrForbidden) {
			t.Fatalf("%s resolve: expected ErrForbidden, got %v", actor.Role, err)
		}
	}
	resolved, err := svc.Resolve(ctx, accesstest.Admin(), g.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Status != StatusResolved || resolved.ResolvedAt == nil {
		t.Fatalf("unexpected resolved grievance %+v", resolved)
	}
	if _, err := svc.Resolve(ctx, accesstest.Admin(), g.ID); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if resolvedEvents != 1 {
		t.Fatalf("expected one resolve event, got %d", resolvedEvents)
	}
}
