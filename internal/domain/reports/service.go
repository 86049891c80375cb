package reports

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"hrms/internal/domain/access"
)

type Service struct {
	Store      *Store
	headcount  Headcounter
	attendance AttendanceSummarizer
	payroll    PayrollReader
	tasks      TaskCounter
	policy     access.Checker
}

func NewService(store *Store, headcount Headcounter, attendance AttendanceSummarizer, payroll PayrollReader, tasks TaskCounter, policy access.Checker) *Service {
	return &Service{Store: store, headcount: headcount, attendance: attendance, payroll: payroll, tasks: tasks, policy: policy}
}

// Dashboard gathers the caller's landing view concurrently. Only a headcount
// failure fails the whole view; other sections are dropped and logged.
func (s *Service) Dashboard(ctx context.Context, actor access.Actor) (Dashboard, error) {
	var out Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		headcount, err := s.headcount.Headcount(gctx)
		if err != nil {
			return err
		}
		out.Headcount = headcount
		return nil
	})

	if actor.EmployeeID != "" {
		g.Go(func() error {
			summary, err := s.attendance.Summary(gctx, actor, actor.EmployeeID)
			if err != nil {
				logSection("attendance", actor, err)
				return nil
			}
			out.Attendance = &summary
			return nil
		})
		g.Go(func() error {
			record, found, err := s.payroll.Get(gctx, actor, actor.EmployeeID)
			if err != nil {
				logSection("payroll", actor, err)
				return nil
			}
			if found {
				out.Payroll = &PayrollSummary{Monthly: record.Total, Annual: record.Annual()}
			}
			return nil
		})
	}

	g.Go(func() error {
		stats, err := s.tasks.Stats(gctx, actor)
		if err != nil {
			logSection("tasks", actor, err)
			return nil
		}
		out.Tasks = &stats
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}

// JobRuns is part of the audit view.
func (s *Service) JobRuns(ctx context.Context, actor access.Actor, jobType string, limit, offset int) ([]JobRun, error) {
	if err := s.policy.Check(ctx, actor, access.ViewAudit, false); err != nil {
		return nil, err
	}
	return s.Store.ListJobRuns(ctx, jobType, limit, offset)
}

func logSection(section string, actor access.Actor, err error) {
	if errors.Is(err, access.ErrForbidden) {
		return
	}
	slog.Warn("dashboard section failed", "section", section, "accountId", actor.AccountID, "err", err)
}
