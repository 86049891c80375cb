package tasks

import "context"

type StoreAPI interface {
	Create(ctx context.Context, task Task) (Task, error)
	Get(ctx context.Context, id string) (Task, error)
	List(ctx context.Context) ([]Task, error)
	ListForAssignee(ctx context.Context, email string) ([]Task, error)
	// Update writes status and notes unless the task is already completed,
	// in which case it returns ErrTaskCompleted.
	Update(ctx context.Context, id string, status Status, notes string) (Task, error)
}
