package transfers

import (
	"context"
	"fmt"
	"strings"

	"hrms/internal/domain/access"
	"hrms/internal/platform/changefeed"
)

type Service struct {
	store     StoreAPI
	directory Directory
	policy    access.Checker
	publisher changefeed.Publisher
}

func NewService(store StoreAPI, directory Directory, policy access.Checker, publisher changefeed.Publisher) *Service {
	return &Service{store: store, directory: directory, policy: policy, publisher: publisher}
}

// Request files a pending transfer. Employees may only file for themselves.
func (s *Service) Request(ctx context.Context, actor access.Actor, in RequestInput) (Request, error) {
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	if in.EmployeeID == "" {
		in.EmployeeID = actor.EmployeeID
	}
	if err := s.policy.Check(ctx, actor, access.FileTransfer, actor.Owns(in.EmployeeID)); err != nil {
		return Request{}, err
	}
	if in.EmployeeID == "" {
		return Request{}, ErrEmployeeID
	}
	in.ToDepartment = strings.TrimSpace(in.ToDepartment)
	if in.ToDepartment == "" {
		return Request{}, ErrDestinationNeeded
	}

	emp, err := s.directory.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return Request{}, err
	}
	if strings.EqualFold(emp.Department, in.ToDepartment) {
		return Request{}, ErrSameDepartment
	}
	req, err := s.store.Create(ctx, Request{
		EmployeeID:     emp.ID,
		EmployeeName:   emp.Name,
		FromDepartment: emp.Department,
		ToDepartment:   in.ToDepartment,
		Reason:         strings.TrimSpace(in.Reason),
		RequestedBy:    actor.AccountID,
	})
	if err != nil {
		return Request{}, fmt.Errorf("file transfer: %w", err)
	}
	s.publish(req, changefeed.OpCreate)
	return req, nil
}

// List returns every request for reviewers and only the caller's own
// requests otherwise.
func (s *Service) List(ctx context.Context, actor access.Actor) ([]Request, error) {
	if s.policy.Allows(ctx, actor, access.ViewTransfers, false) {
		return s.store.List(ctx)
	}
	if err := s.policy.Check(ctx, actor, access.ViewTransfers, actor.EmployeeID != ""); err != nil {
		return nil, err
	}
	return s.store.ListForEmployee(ctx, actor.EmployeeID)
}

// Decide approves or rejects a pending request. Decided requests never
// change again.
func (s *Service) Decide(ctx context.Context, actor access.Actor, id, decision string) (Request, error) {
	if err := s.policy.Check(ctx, actor, access.DecideTransfer, false); err != nil {
		return Request{}, err
	}
	status, err := ParseDecision(decision)
	if err != nil {
		return Request{}, err
	}
	req, err := s.store.Decide(ctx, id, status, actor.AccountID)
	if err != nil {
		return Request{}, err
	}
	s.publish(req, changefeed.OpUpdate)
	return req, nil
}

func (s *Service) publish(req Request, op changefeed.Op) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(changefeed.Event{
		Collection: CollectionTransfers,
		DocumentID: req.ID,
		Op:         op,
		Attrs:      map[string]string{"status": string(req.Status), "employeeId": req.EmployeeID},
	})
}
