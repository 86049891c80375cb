package attendance

import (
	"context"
	"errors"
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

// Mark records status for (date, employee), overwriting any earlier entry.
func (s *Service) Mark(ctx context.Context, actor access.Actor, date, employeeID, status string) (Entry, error) {
	if err := s.policy.Check(ctx, actor, access.MarkAttendance, actor.Owns(employeeID)); err != nil {
		return Entry{}, err
	}
	entry, err := newEntry(date, employeeID, status)
	if err != nil {
		return Entry{}, err
	}
	entry.MarkedBy = actor.AccountID
	saved, err := s.store.Upsert(ctx, entry)
	if err != nil {
		return Entry{}, fmt.Errorf("mark attendance: %w", err)
	}
	s.publish(saved, changefeed.OpUpdate)
	return saved, nil
}

// Reset removes the entry so the day reads as not marked. Resetting a day
// that has no entry is not an error.
func (s *Service) Reset(ctx context.Context, actor access.Actor, date, employeeID string) error {
	if err := s.policy.Check(ctx, actor, access.MarkAttendance, actor.Owns(employeeID)); err != nil {
		return err
	}
	date, err := NormalizeDate(date)
	if err != nil {
		return err
	}
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return ErrEmployeeID
	}
	deleted, err := s.store.Delete(ctx, date, employeeID)
	if err != nil {
		return fmt.Errorf("reset attendance: %w", err)
	}
	if deleted {
		s.publish(Entry{Date: date, EmployeeID: employeeID}, changefeed.OpDelete)
	}
	return nil
}

// Entry reads a single day. found is false when the day has not been marked.
func (s *Service) Entry(ctx context.Context, actor access.Actor, date, employeeID string) (Entry, bool, error) {
	if err := s.policy.Check(ctx, actor, access.ViewAttendance, actor.Owns(employeeID)); err != nil {
		return Entry{}, false, err
	}
	date, err := NormalizeDate(date)
	if err != nil {
		return Entry{}, false, err
	}
	entry, err := s.store.Get(ctx, date, employeeID)
	if errors.Is(err, ErrEntryNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// ForDate returns the status of every marked employee on date, keyed by
// employee id. Employees missing from the map are not marked.
func (s *Service) ForDate(ctx context.Context, actor access.Actor, date string) (map[string]Status, error) {
	if err := s.policy.Check(ctx, actor, access.ViewAttendance, false); err != nil {
		return nil, err
	}
	date, err := NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Status, len(entries))
	for _, entry := range entries {
		out[entry.EmployeeID] = entry.Status
	}
	return out, nil
}

func (s *Service) History(ctx context.Context, actor access.Actor, employeeID string, limit int) ([]Entry, error) {
	if err := s.policy.Check(ctx, actor, access.ViewAttendance, actor.Owns(employeeID)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.History(ctx, employeeID, limit)
}

// Summary counts every recorded day for the employee.
func (s *Service) Summary(ctx context.Context, actor access.Actor, employeeID string) (Summary, error) {
	if err := s.policy.Check(ctx, actor, access.ViewAttendance, actor.Owns(employeeID)); err != nil {
		return Summary{}, err
	}
	entries, err := s.store.History(ctx, employeeID, 0)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(entries), nil
}

func newEntry(date, employeeID, status string) (Entry, error) {
	date, err := NormalizeDate(date)
	if err != nil {
		return Entry{}, err
	}
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return Entry{}, ErrEmployeeID
	}
	parsed, err := ParseStatus(status)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Date: date, EmployeeID: employeeID, Status: parsed}, nil
}

func (s *Service) publish(entry Entry, op changefeed.Op) {
	if s.publisher == nil {
		return
	}
	attrs := map[string]string{"date": entry.Date, "employeeId": entry.EmployeeID}
	if entry.Status != "" {
		attrs["status"] = string(entry.Status)
	}
	s.publisher.Publish(changefeed.Event{
		Collection: CollectionAttendance,
		DocumentID: entry.Date + "_" + entry.EmployeeID,
		Op:         op,
		Attrs:      attrs,
	})
}
