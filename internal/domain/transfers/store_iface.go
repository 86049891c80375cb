package transfers

import "context"

type StoreAPI interface {
	Create(ctx context.Context, req Request) (Request, error)
	Get(ctx context.Context, id string) (Request, error)
	List(ctx context.Context) ([]Request, error)
	ListForEmployee(ctx context.Context, employeeID string) ([]Request, error)
	// Decide moves a pending request to status. It returns
	// ErrInvalidTransition when the request exists but is not pending.
	Decide(ctx context.Context, id string, status Status, decidedBy string) (Request, error)
}
