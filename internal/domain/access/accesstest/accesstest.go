// Package accesstest provides a policy double for domain service tests.
package accesstest

import (
	"context"
	"fmt"
	"sync"

	"hrms/internal/domain/access"
)

// Policy evaluates access.Authorize against fixed flags and remembers
// every denied category.
type Policy struct {
	Flags access.Flags

	mu     sync.Mutex
	denied []access.Category
}

func New() *Policy {
	return &Policy{Flags: access.DefaultFlags()}
}

func (p *Policy) Check(_ context.Context, actor access.Actor, category access.Category, isSelf bool) error {
	if access.Authorize(actor.Role, p.Flags, category, isSelf) == access.Allow {
		return nil
	}
	p.mu.Lock()
	p.denied = append(p.denied, category)
	p.mu.Unlock()
	return fmt.Errorf("%w: %s", access.ErrForbidden, category)
}

func (p *Policy) Allows(_ context.Context, actor access.Actor, category access.Category, isSelf bool) bool {
	return access.Authorize(actor.Role, p.Flags, category, isSelf) == access.Allow
}

func (p *Policy) Denied() []access.Category {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]access.Category(nil), p.denied...)
}

func Admin() access.Actor {
	return access.Actor{AccountID: "acct-admin", Email: "admin@mcd.gov.in", Role: access.RoleAdmin, EmployeeID: "emp-admin"}
}

func HR() access.Actor {
	return access.Actor{AccountID: "acct-hr", Email: "hr@mcd.gov.in", Role: access.RoleHR, EmployeeID: "emp-hr"}
}

func Employee(employeeID, email string) access.Actor {
	return access.Actor{AccountID: "acct-" + employeeID, Email: email, Role: access.RoleEmployee, EmployeeID: employeeID}
}
