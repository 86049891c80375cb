package grievances

import "context"

type StoreAPI interface {
	Create(ctx context.Context, grievance Grievance) (Grievance, error)
	List(ctx context.Context) ([]Grievance, error)
	ListBySubmitter(ctx context.Context, accountID string) ([]Grievance, error)
	// Resolve moves a pending grievance to resolved and returns
	// ErrAlreadyResolved when it was resolved before.
	Resolve(ctx context.Context, id, resolvedBy string) (Grievance, error)
}
