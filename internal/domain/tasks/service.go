package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hrms/internal/domain/access"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/platform/changefeed"
	"hrms/internal/platform/email"
	"hrms/internal/platform/jobs"
)

type Service struct {
	store     StoreAPI
	directory Directory
	policy    access.Checker
	publisher changefeed.Publisher
	jobs      Enqueuer
	mailer    email.Mailer
}

func NewService(store StoreAPI, directory Directory, policy access.Checker, publisher changefeed.Publisher, queue Enqueuer, mailer email.Mailer) *Service {
	return &Service{store: store, directory: directory, policy: policy, publisher: publisher, jobs: queue, mailer: mailer}
}

// Assign creates a pending task for the employee with the given email and
// queues a notification to them.
func (s *Service) Assign(ctx context.Context, actor access.Actor, in AssignInput) (Task, error) {
	if err := s.policy.Check(ctx, actor, access.AssignTasks, false); err != nil {
		return Task{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, ErrTitleRequired
	}
	assignee := auth.NormalizeEmail(in.AssignedTo)
	if assignee == "" {
		return Task{}, ErrAssigneeRequired
	}
	due, err := time.Parse(DateLayout, strings.TrimSpace(in.DueDate))
	if err != nil {
		return Task{}, ErrInvalidDueDate
	}
	emp, err := s.directory.EmployeeByEmail(ctx, assignee)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		return Task{}, ErrUnknownAssignee
	}
	if err != nil {
		return Task{}, err
	}

	task, err := s.store.Create(ctx, Task{
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		AssignedTo:   assignee,
		EmployeeName: emp.Name,
		AssignedBy:   actor.Email,
		DueDate:      due.Format(DateLayout),
	})
	if err != nil {
		return Task{}, fmt.Errorf("assign task: %w", err)
	}
	s.publish(task, changefeed.OpCreate)
	s.notifyAssignee(task)
	return task, nil
}

func (s *Service) ListAll(ctx context.Context, actor access.Actor) ([]Task, error) {
	if err := s.policy.Check(ctx, actor, access.ViewTasks, false); err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

// ListForAssignee returns tasks assigned to emailAddr. Callers other than
// the assignee need the full task view.
func (s *Service) ListForAssignee(ctx context.Context, actor access.Actor, emailAddr string) ([]Task, error) {
	emailAddr = auth.NormalizeEmail(emailAddr)
	if err := s.policy.Check(ctx, actor, access.ViewTasks, isAssignee(actor, emailAddr)); err != nil {
		return nil, err
	}
	return s.store.ListForAssignee(ctx, emailAddr)
}

// Update changes status and notes. Only the assignee may do it and a
// completed task is final.
func (s *Service) Update(ctx context.Context, actor access.Actor, id string, in UpdateInput) (Task, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		// Without the full task view a missing task answers like someone
		// else's task.
		if errors.Is(err, ErrTaskNotFound) && !s.policy.Allows(ctx, actor, access.ViewTasks, false) {
			if denied := s.policy.Check(ctx, actor, access.UpdateTask, false); denied != nil {
				return Task{}, denied
			}
		}
		return Task{}, err
	}
	if err := s.policy.Check(ctx, actor, access.UpdateTask, isAssignee(actor, current.AssignedTo)); err != nil {
		return Task{}, err
	}
	if current.Status == StatusCompleted {
		return Task{}, ErrTaskCompleted
	}
	status := current.Status
	if strings.TrimSpace(in.Status) != "" {
		if status, err = ParseStatus(in.Status); err != nil {
			return Task{}, err
		}
	}
	notes := current.EmployeeNotes
	if in.Notes != nil {
		notes = strings.TrimSpace(*in.Notes)
	}
	if len(notes) > maxNotesLength {
		return Task{}, ErrNotesTooLong
	}
	task, err := s.store.Update(ctx, id, status, notes)
	if err != nil {
		return Task{}, err
	}
	s.publish(task, changefeed.OpUpdate)
	return task, nil
}

// Stats counts every task for callers with the full view and the caller's
// own tasks otherwise.
func (s *Service) Stats(ctx context.Context, actor access.Actor) (Stats, error) {
	var list []Task
	var err error
	if s.policy.Allows(ctx, actor, access.ViewTasks, false) {
		list, err = s.store.List(ctx)
	} else {
		list, err = s.ListForAssignee(ctx, actor, actor.Email)
	}
	if err != nil {
		return Stats{}, err
	}
	return CountStats(list), nil
}

func isAssignee(actor access.Actor, emailAddr string) bool {
	return actor.Email != "" && strings.EqualFold(actor.Email, emailAddr)
}

func (s *Service) notifyAssignee(task Task) {
	if s.jobs == nil || s.mailer == nil {
		return
	}
	msg := email.Message{
		To:      task.AssignedTo,
		Subject: "New task: " + task.Title,
		Body: fmt.Sprintf("Hello %s,\n\nYou have been assigned \"%s\" by %s, due %s.\n\n%s\n",
			task.EmployeeName, task.Title, task.AssignedBy, task.DueDate, task.Description),
	}
	s.jobs.Enqueue(jobs.JobTaskAssignedEmail, func(ctx context.Context) (any, error) {
		if err := s.mailer.Send(ctx, msg); err != nil {
			return map[string]any{"taskId": task.ID}, err
		}
		return map[string]any{"taskId": task.ID, "to": msg.To}, nil
	})
}

func (s *Service) publish(task Task, op changefeed.Op) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(changefeed.Event{
		Collection: CollectionTasks,
		DocumentID: task.ID,
		Op:         op,
		Attrs:      map[string]string{"status": string(task.Status), "assignedTo": task.AssignedTo},
	})
}
