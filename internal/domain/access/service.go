package access

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"hrms/internal/platform/changefeed"
)

// Checker is the slice of the policy that domain services depend on.
type Checker interface {
	Check(ctx context.Context, actor Actor, category Category, isSelf bool) error
	// Allows answers the same question without logging or counting a denial.
	Allows(ctx context.Context, actor Actor, category Category, isSelf bool) bool
}

type DenialRecorder interface {
	RecordDenial(category string)
}

type Service struct {
	store     StoreAPI
	hub       *changefeed.Hub
	publisher changefeed.Publisher
	denials   DenialRecorder
	creating  singleflight.Group
}

// NewService wires the policy to its store. publisher may be a bridge that
// also notifies other instances; when nil, events go straight to hub.
func NewService(store StoreAPI, hub *changefeed.Hub, publisher changefeed.Publisher) *Service {
	if publisher == nil {
		publisher = hub
	}
	return &Service{store: store, hub: hub, publisher: publisher}
}

func (s *Service) SetDenialRecorder(recorder DenialRecorder) {
	s.denials = recorder
}

// ResolveRole never fails. A missing row is created as employee; unreadable
// or malformed rows resolve to employee and are logged.
func (s *Service) ResolveRole(ctx context.Context, accountID string) Role {
	raw, found, err := s.store.GetRole(ctx, accountID)
	if err != nil {
		slog.Warn("role lookup failed, using employee", "accountId", accountID, "err", err)
		return RoleEmployee
	}
	if !found {
		return s.ensureDefaultRole(ctx, accountID)
	}
	role, err := ParseRole(raw)
	if err != nil {
		slog.Warn("malformed role, using employee", "accountId", accountID, "value", raw)
		return RoleEmployee
	}
	return role
}

func (s *Service) ensureDefaultRole(ctx context.Context, accountID string) Role {
	result, err, _ := s.creating.Do(accountID, func() (any, error) {
		created, err := s.store.CreateDefaultRole(ctx, accountID, RoleEmployee)
		if err != nil {
			return RoleEmployee, err
		}
		if created {
			s.publisher.Publish(changefeed.Event{
				Collection: CollectionUserRoles,
				DocumentID: accountID,
				Op:         changefeed.OpCreate,
				Attrs:      map[string]string{"role": RoleEmployee.String()},
			})
			return RoleEmployee, nil
		}
		// Another writer got there first; its value wins.
		raw, found, err := s.store.GetRole(ctx, accountID)
		if err != nil || !found {
			return RoleEmployee, err
		}
		role, err := ParseRole(raw)
		if err != nil {
			return RoleEmployee, err
		}
		return role, nil
	})
	if err != nil {
		slog.Warn("default role creation failed, using employee", "accountId", accountID, "err", err)
		return RoleEmployee
	}
	return result.(Role)
}

// SetRole parses raw once and stores the normalized value.
func (s *Service) SetRole(ctx context.Context, actor Actor, accountID, raw string) (Role, error) {
	if err := s.Check(ctx, actor, ChangeRole, false); err != nil {
		return "", err
	}
	role, err := ParseRole(raw)
	if err != nil {
		return "", err
	}
	if err := s.store.UpsertRole(ctx, accountID, role); err != nil {
		return "", fmt.Errorf("set role: %w", err)
	}
	s.publisher.Publish(changefeed.Event{
		Collection: CollectionUserRoles,
		DocumentID: accountID,
		Op:         changefeed.OpUpdate,
		Attrs:      map[string]string{"role": role.String()},
	})
	return role, nil
}

func (s *Service) ListRoles(ctx context.Context, actor Actor) ([]RoleAssignment, error) {
	if err := s.Check(ctx, actor, ChangeRole, false); err != nil {
		return nil, err
	}
	return s.store.ListRoles(ctx)
}

// WatchRole delivers every later role change for accountID. The returned
// subscription must be closed by the caller.
func (s *Service) WatchRole(accountID string, fn func(Role)) *changefeed.Subscription {
	return s.hub.Subscribe(changefeed.Filter{Collection: CollectionUserRoles, DocumentID: accountID}, func(evt changefeed.Event) {
		role, err := ParseRole(evt.Attrs["role"])
		if err != nil {
			role = RoleEmployee
		}
		fn(role)
	})
}

// EffectiveFlags falls back to DefaultFlags when the row is missing or the
// read fails.
func (s *Service) EffectiveFlags(ctx context.Context) Flags {
	flags, found, err := s.store.GetFlags(ctx)
	if err != nil {
		slog.Warn("system config lookup failed, using defaults", "err", err)
		return DefaultFlags()
	}
	if !found {
		return DefaultFlags()
	}
	return flags
}

func (s *Service) UpdateFlags(ctx context.Context, actor Actor, patch FlagsPatch) (Flags, error) {
	if err := s.Check(ctx, actor, EditConfig, false); err != nil {
		return Flags{}, err
	}
	if patch.Empty() {
		return Flags{}, ErrNoChanges
	}
	flags, err := s.store.MergeFlags(ctx, patch, DefaultFlags())
	if err != nil {
		return Flags{}, fmt.Errorf("update system config: %w", err)
	}
	s.publisher.Publish(changefeed.Event{
		Collection: CollectionSystemConfig,
		DocumentID: SystemConfigID,
		Op:         changefeed.OpUpdate,
		Attrs:      flags.attrs(),
	})
	return flags, nil
}

func (s *Service) WatchFlags(fn func(Flags)) *changefeed.Subscription {
	return s.hub.Subscribe(changefeed.Filter{Collection: CollectionSystemConfig}, func(evt changefeed.Event) {
		flags, ok := flagsFromAttrs(evt.Attrs)
		if !ok {
			slog.Warn("malformed config event, using defaults")
		}
		fn(flags)
	})
}

// Decide evaluates the policy against the currently effective flags.
func (s *Service) Decide(ctx context.Context, role Role, category Category, isSelf bool) Decision {
	flags := DefaultFlags()
	if role == RoleHR {
		flags = s.EffectiveFlags(ctx)
	}
	return Authorize(role, flags, category, isSelf)
}

func (s *Service) Allows(ctx context.Context, actor Actor, category Category, isSelf bool) bool {
	return s.Decide(ctx, actor.Role, category, isSelf) == Allow
}

// Check returns ErrForbidden when actor may not perform category.
func (s *Service) Check(ctx context.Context, actor Actor, category Category, isSelf bool) error {
	if s.Decide(ctx, actor.Role, category, isSelf) == Allow {
		return nil
	}
	if s.denials != nil {
		s.denials.RecordDenial(category.String())
	}
	slog.Info("authorization denied", "accountId", actor.AccountID, "role", actor.Role.String(), "category", category.String())
	return fmt.Errorf("%w: %s", ErrForbidden, category)
}
