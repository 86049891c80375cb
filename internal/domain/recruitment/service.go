package recruitment

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"hrms/internal/domain/access"
	"hrms/internal/domain/auth"
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

func (s *Service) CreatePosting(ctx context.Context, actor access.Actor, in PostingInput) (Posting, error) {
	if err := s.policy.Check(ctx, actor, access.ManageJobs, false); err != nil {
		return Posting{}, err
	}
	posting := Posting{
		Title:       strings.TrimSpace(in.Title),
		Department:  strings.TrimSpace(in.Department),
		Location:    strings.TrimSpace(in.Location),
		JobType:     strings.TrimSpace(in.JobType),
		Description: strings.TrimSpace(in.Description),
		CreatedBy:   actor.AccountID,
	}
	if posting.Title == "" {
		return Posting{}, ErrTitleRequired
	}
	if posting.Department == "" {
		return Posting{}, ErrDepartmentRequired
	}
	if posting.JobType == "" {
		posting.JobType = DefaultJobType
	}
	saved, err := s.store.CreatePosting(ctx, posting)
	if err != nil {
		return Posting{}, fmt.Errorf("create posting: %w", err)
	}
	s.publish(CollectionJobs, saved.ID, changefeed.OpCreate)
	return saved, nil
}

// ListPostings returns every posting to recruiters.
func (s *Service) ListPostings(ctx context.Context, actor access.Actor) ([]Posting, error) {
	if err := s.policy.Check(ctx, actor, access.ManageJobs, false); err != nil {
		return nil, err
	}
	return s.store.ListPostings(ctx, false)
}

// OpenPostings backs the public careers page and needs no sign-in.
func (s *Service) OpenPostings(ctx context.Context) ([]Posting, error) {
	return s.store.ListPostings(ctx, true)
}

func (s *Service) SetPostingStatus(ctx context.Context, actor access.Actor, id, raw string) (Posting, error) {
	if err := s.policy.Check(ctx, actor, access.ManageJobs, false); err != nil {
		return Posting{}, err
	}
	status, err := ParsePostingStatus(raw)
	if err != nil {
		return Posting{}, err
	}
	saved, err := s.store.SetPostingStatus(ctx, id, status)
	if err != nil {
		return Posting{}, err
	}
	s.publish(CollectionJobs, saved.ID, changefeed.OpUpdate)
	return saved, nil
}

func (s *Service) DeletePosting(ctx context.Context, actor access.Actor, id string) error {
	if err := s.policy.Check(ctx, actor, access.ManageJobs, false); err != nil {
		return err
	}
	if err := s.store.DeletePosting(ctx, id); err != nil {
		return err
	}
	s.publish(CollectionJobs, id, changefeed.OpDelete)
	return nil
}

// Apply records an unauthenticated candidate's application to an open
// posting.
func (s *Service) Apply(ctx context.Context, in ApplicationInput) (Application, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Application{}, ErrNameRequired
	}
	candidateEmail := auth.NormalizeEmail(in.Email)
	if err := auth.ValidateEmail(candidateEmail); err != nil {
		return Application{}, err
	}
	resume := strings.TrimSpace(in.ResumeLink)
	if resume != "" {
		parsed, err := url.Parse(resume)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return Application{}, ErrInvalidResumeLink
		}
	}
	posting, err := s.store.GetPosting(ctx, strings.TrimSpace(in.JobID))
	if err != nil {
		return Application{}, err
	}
	if posting.Status != PostingOpen {
		return Application{}, ErrPostingClosed
	}
	app, err := s.store.CreateApplication(ctx, Application{
		JobID:          posting.ID,
		JobTitle:       posting.Title,
		CandidateName:  name,
		CandidateEmail: candidateEmail,
		CandidatePhone: strings.TrimSpace(in.Phone),
		ResumeLink:     resume,
		Status:         ApplicationSubmitted,
	})
	if err != nil {
		return Application{}, fmt.Errorf("submit application: %w", err)
	}
	s.publish(CollectionApplications, app.ID, changefeed.OpCreate)
	return app, nil
}

func (s *Service) ListApplications(ctx context.Context, actor access.Actor, jobID string) ([]Application, error) {
	if err := s.policy.Check(ctx, actor, access.ViewApplications, false); err != nil {
		return nil, err
	}
	return s.store.ListApplications(ctx, strings.TrimSpace(jobID))
}

func (s *Service) publish(collection, id string, op changefeed.Op) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(changefeed.Event{Collection: collection, DocumentID: id, Op: op})
}
