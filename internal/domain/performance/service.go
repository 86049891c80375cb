package performance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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

// Rate overwrites the employee's rating. Rating one's own record is decided
// by the access policy.
func (s *Service) Rate(ctx context.Context, actor access.Actor, employeeID string, rating int, comment string) (Rating, error) {
	if err := s.policy.Check(ctx, actor, access.RatePerformance, actor.Owns(employeeID)); err != nil {
		return Rating{}, err
	}
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return Rating{}, ErrEmployeeID
	}
	if rating < MinRating || rating > MaxRating {
		return Rating{}, ErrRatingRange
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxCommentLength {
		return Rating{}, ErrCommentTooLong
	}
	saved, err := s.store.Upsert(ctx, Rating{EmployeeID: employeeID, Rating: rating, Comment: comment, RatedBy: actor.AccountID})
	if err != nil {
		return Rating{}, fmt.Errorf("save rating: %w", err)
	}
	if s.publisher != nil {
		s.publisher.Publish(changefeed.Event{
			Collection: CollectionPerformance,
			DocumentID: saved.EmployeeID,
			Op:         changefeed.OpUpdate,
			Attrs:      map[string]string{"rating": strconv.Itoa(saved.Rating)},
		})
	}
	return saved, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, employeeID string) (Rating, bool, error) {
	if err := s.policy.Check(ctx, actor, access.ViewPerformance, actor.Owns(employeeID)); err != nil {
		return Rating{}, false, err
	}
	rating, err := s.store.Get(ctx, employeeID)
	if errors.Is(err, ErrRatingNotFound) {
		return Rating{}, false, nil
	}
	if err != nil {
		return Rating{}, false, err
	}
	return rating, true, nil
}

func (s *Service) List(ctx context.Context, actor access.Actor) ([]Listed, error) {
	if err := s.policy.Check(ctx, actor, access.ViewPerformance, false); err != nil {
		return nil, err
	}
	return s.store.List(ctx)
}

func (s *Service) Distribution(ctx context.Context, actor access.Actor) (Distribution, error) {
	ratings, err := s.List(ctx, actor)
	if err != nil {
		return Distribution{}, err
	}
	return Distribute(ratings), nil
}
