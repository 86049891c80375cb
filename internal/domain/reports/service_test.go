package reports

import (
	"context"
	"errors"
	"testing"

	"hrms/internal/domain/access"
	"hrms/internal/domain/access/accesstest"
	"hrms/internal/domain/attendance"
	"hrms/internal/domain/core"
	"hrms/internal/domain/payroll"
	"hrms/internal/domain/tasks"
)

type stubHeadcount struct {
	headcount core.Headcount
	err       error
}

func (s stubHeadcount) Headcount(context.Context) (core.Headcount, error) {
	return s.headcount, s.err
}

type stubAttendance map[string]attendance.Summary

func (s stubAttendance) Summary(_ context.Context, _ access.Actor, employeeID string) (attendance.Summary, error) {
	summary, ok := s[employeeID]
	if !ok {
		return attendance.Summary{}, errors.New("connection reset")
	}
	return summary, nil
}

type stubPayroll map[string]payroll.Record

func (s stubPayroll) Get(_ context.Context, _ access.Actor, employeeID string) (payroll.Record, bool, error) {
	record, ok := s[employeeID]
	return record, ok, nil
}

type stubTasks struct{ stats tasks.Stats }

func (s stubTasks) Stats(context.Context, access.Actor) (tasks.Stats, error) {
	return s.stats, nil
}

func TestDashboardCombinesSections(t *testing.T) {
	svc := NewService(nil,
		stubHeadcount{headcount: core.BuildHeadcount([]core.DepartmentCount{{Department: "Health", Count: 3}})},
		stubAttendance{"emp-1": {Present: 2, Total: 2}},
		stubPayroll{"emp-1": {EmployeeID: "emp-1", Total: 1000}},
		stubTasks{stats: tasks.Stats{Total: 2, Pending: 2}},
		accesstest.New(),
	)

	got, err := svc.Dashboard(context.Background(), accesstest.Employee("emp-1", "one@mcd.gov.in"))
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if got.Headcount.Total != 3 || got.Headcount.LargestDept != "Health" {
		t.Fatalf("unexpected headcount %+v", got.Headcount)
	}
	if got.Attendance == nil || got.Attendance.Present != 2 {
		t.Fatalf("unexpected attendance %+v", got.Attendance)
	}
	if got.Payroll == nil || got.Payroll.Annual != 12000 {
		t.Fatalf("unexpected payroll %+v", got.Payroll)
	}
	if got.Tasks == nil || got.Tasks.Pending != 2 {
		t.Fatalf("unexpected tasks %+v", got.Tasks)
	}
}

func TestDashboardDegradesOptionalSections(t *testing.T) {
	svc := NewService(nil, stubHeadcount{}, stubAttendance{}, stubPayroll{}, stubTasks{}, accesstest.New())

	got, err := svc.Dashboard(context.Background(), accesstest.Employee("emp-9", ""))
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if got.Attendance != nil || got.Payroll != nil {
		t.Fatalf("expected missing sections to be nil, got %+v", got)
	}

	failing := NewService(nil, stubHeadcount{err: errors.New("db down")}, stubAttendance{}, stubPayroll{}, stubTasks{}, accesstest.New())
	if _, err := failing.Dashboard(context.Background(), accesstest.Admin()); err == nil {
		t.Fatal("expected headcount failure to fail the dashboard")
	}
}

func TestJobRunsIsAdminOnly(t *testing.T) {
	svc := NewService(nil, stubHeadcount{}, stubAttendance{}, stubPayroll{}, stubTasks{}, accesstest.New())
	if _, err := svc.JobRuns(context.Background(), accesstest.HR(), "", 10, 0); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDecodeDetails(t *testing.T) {
	if got := decodeDetails(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := decodeDetails([]byte(`{"to":"a@b.c"}`)); got["to"] != "a@b.c" {
		t.Fatalf("unexpected details %v", got)
	}
	if got := decodeDetails([]byte(`not json`)); got["raw"] != "not json" {
		t.Fatalf("unexpected details %v", got)
	}
}
