package recruitment

import "context"

type StoreAPI interface {
	CreatePosting(ctx context.Context, posting Posting) (Posting, error)
	GetPosting(ctx context.Context, id string) (Posting, error)
	ListPostings(ctx context.Context, onlyOpen bool) ([]Posting, error)
	SetPostingStatus(ctx context.Context, id string, status PostingStatus) (Posting, error)
	DeletePosting(ctx context.Context, id string) error
	CreateApplication(ctx context.Context, app Application) (Application, error)
	ListApplications(ctx context.Context, jobID string) ([]Application, error)
}
