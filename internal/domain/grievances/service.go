package grievances

import (
	"context"
	"fmt"
	"strings"

	"hrms/internal/domain/access"
	"hrms/internal/platform/changefeed"
)

type Service struct {
	store     StoreAPI
	policy    access.Checker
	publisher changefeed.Publisher
}

func NewService(store StoreAPI, policy access.Checker, publisher changefeed.Publisher) *Service {
	return &Service{store: store, policy: policy, publisher: publisher}
}

// File records a pending grievance from the caller.
func (s *Service) File(ctx context.Context, actor access.Actor, in Input) (Grievance, error) {
	if err := s.policy.Check(ctx, actor, access.FileGrievance, true); err != nil {
		return Grievance{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Grievance{}, ErrTitleRequired
	}
	if len(title) > maxTitleLength {
		return Grievance{}, ErrTitleTooLong
	}
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if category == "" {
		category = DefaultCategory
	}
	g, err := s.store.Create(ctx, Grievance{
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		Category:       category,
		SubmittedBy:    actor.AccountID,
		SubmitterEmail: actor.Email,
	})
	if err != nil {
		return Grievance{}, fmt.Errorf("file grievance: %w", err)
	}
	s.publish(g, changefeed.OpCreate)
	return g, nil
}

// List returns every grievance to reviewers and the caller's own otherwise.
func (s *Service) List(ctx context.Context, actor access.Actor) ([]Grievance, error) {
	if s.policy.Allows(ctx, actor, access.ViewGrievances, false) {
		return s.store.List(ctx)
	}
	if err := s.policy.Check(ctx, actor, access.ViewGrievances, actor.AccountID != ""); err != nil {
		return nil, err
	}
	return s.store.ListBySubmitter(ctx, actor.AccountID)
}

// Resolve is one-way. A resolved grievance is never reopened.
func (s *Service) Resolve(ctx context.Context, actor access.Actor, id string) (Grievance, error) {
	if err := s.policy.Check(ctx, actor, access.ResolveGrievance, false); err != nil {
		return Grievance{}, err
	}
	g, err := s.store.Resolve(ctx, id, actor.AccountID)
	if err != nil {
		return Grievance{}, err
	}
	s.publish(g, changefeed.OpUpdate)
	return g, nil
}

func (s *Service) publish(g Grievance, op changefeed.Op) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(changefeed.Event{
		Collection: CollectionGrievances,
		DocumentID: g.ID,
		Op:         op,
		Attrs:      map[string]string{"status": string(g.Status)},
	})
}
