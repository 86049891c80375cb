package grievances

const (
	CollectionGrievances = "grievances"

	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"

	DefaultCategory = "general"

	maxTitleLength = 200
)
