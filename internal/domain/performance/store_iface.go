package performance

import "context"

type StoreAPI interface {
	Upsert(ctx context.Context, rating Rating) (Rating, error)
	Get(ctx context.Context, employeeID string) (Rating, error)
	List(ctx context.Context) ([]Listed, error)
}
