package core

import (
	"context"
	"errors"
	"fmt"
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

// List returns every employee for callers allowed to see the directory and
// only the caller's own record otherwise.
func (s *Service) List(ctx context.Context, actor access.Actor, search string) ([]Employee, error) {
	if s.policy.Allows(ctx, actor, access.ViewEmployees, false) {
		return s.store.ListEmployees(ctx, search)
	}
	if actor.EmployeeID == "" {
		return nil, s.policy.Check(ctx, actor, access.ViewEmployees, false)
	}
	own, err := s.Get(ctx, actor, actor.EmployeeID)
	if errors.Is(err, ErrEmployeeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !MatchesSearch(own, search) {
		return nil, nil
	}
	return []Employee{own}, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, employeeID string) (Employee, error) {
	if err := s.policy.Check(ctx, actor, access.ViewEmployees, actor.Owns(employeeID)); err != nil {
		return Employee{}, err
	}
	return s.store.GetEmployee(ctx, employeeID)
}

// ForAccount finds the employee record linked to a sign-in account. It is
// used to build the caller's identity and performs no authorization.
func (s *Service) ForAccount(ctx context.Context, accountID, email string) (Employee, error) {
	emp, err := s.store.EmployeeByAccount(ctx, accountID)
	if !errors.Is(err, ErrEmployeeNotFound) || email == "" {
		return emp, err
	}
	return s.store.UnlinkedEmployeeByEmail(ctx, email)
}

// Create adds an employee. When account is set a sign-in account with the
// employee role is created in the same transaction.
func (s *Service) Create(ctx context.Context, actor access.Actor, in EmployeeInput, account *NewAccount) (Employee, error) {
	if err := s.policy.Check(ctx, actor, access.ManageEmployees, false); err != nil {
		return Employee{}, err
	}
	in, err := normalizeInput(in)
	if err != nil {
		return Employee{}, err
	}

	var emp Employee
	if account != nil {
		if in.Email == "" {
			return Employee{}, ErrEmailRequired
		}
		if err := auth.ValidatePassword(account.Password); err != nil {
			return Employee{}, err
		}
		hash, err := auth.HashPassword(account.Password)
		if err != nil {
			return Employee{}, err
		}
		emp, err = s.store.CreateEmployeeWithAccount(ctx, in, hash, access.RoleEmployee.String())
		if err != nil {
			return Employee{}, fmt.Errorf("create employee with account: %w", err)
		}
	} else {
		emp, err = s.store.CreateEmployee(ctx, in)
		if err != nil {
			return Employee{}, fmt.Errorf("create employee: %w", err)
		}
	}
	s.publish(emp.ID, changefeed.OpCreate)
	return emp, nil
}

func (s *Service) Update(ctx context.Context, actor access.Actor, employeeID string, in EmployeeInput) (Employee, error) {
	if err := s.policy.Check(ctx, actor, access.ManageEmployees, false); err != nil {
		return Employee{}, err
	}
	in, err := normalizeInput(in)
	if err != nil {
		return Employee{}, err
	}
	emp, err := s.store.UpdateEmployee(ctx, employeeID, in)
	if err != nil {
		return Employee{}, err
	}
	s.publish(emp.ID, changefeed.OpUpdate)
	return emp, nil
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, employeeID string) error {
	if err := s.policy.Check(ctx, actor, access.ManageEmployees, false); err != nil {
		return err
	}
	if err := s.store.DeleteEmployee(ctx, employeeID); err != nil {
		return err
	}
	s.publish(employeeID, changefeed.OpDelete)
	return nil
}

// Headcount is an aggregate and is open to every signed-in role.
func (s *Service) Headcount(ctx context.Context) (Headcount, error) {
	counts, err := s.store.DepartmentCounts(ctx)
	if err != nil {
		return Headcount{}, err
	}
	return BuildHeadcount(counts), nil
}

func BuildHeadcount(counts []DepartmentCount) Headcount {
	out := Headcount{Departments: counts}
	if out.Departments == nil {
		out.Departments = []DepartmentCount{}
	}
	for _, item := range counts {
		out.Total += item.Count
		if item.Count > out.LargestDeptLen {
			out.LargestDept = item.Department
			out.LargestDeptLen = item.Count
		}
	}
	return out
}

func MatchesSearch(emp Employee, search string) bool {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(emp.Name), term) ||
		strings.Contains(strings.ToLower(emp.Email), term) ||
		strings.Contains(strings.ToLower(emp.EmployeeCode), term)
}

func normalizeInput(in EmployeeInput) (EmployeeInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Department = strings.TrimSpace(in.Department)
	in.EmployeeCode = strings.TrimSpace(in.EmployeeCode)
	in.Post = strings.TrimSpace(in.Post)
	in.Email = auth.NormalizeEmail(in.Email)
	if in.Name == "" {
		return in, ErrNameRequired
	}
	if in.Email != "" {
		if err := auth.ValidateEmail(in.Email); err != nil {
			return in, err
		}
	}
	return in, nil
}

func (s *Service) publish(employeeID string, op changefeed.Op) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(changefeed.Event{Collection: CollectionEmployees, DocumentID: employeeID, Op: op})
}
