package transfers

const (
	CollectionTransfers = "transfers"

	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)
