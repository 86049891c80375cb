package recruitment

const (
	CollectionJobs         = "jobs"
	CollectionApplications = "applications"

	PostingOpen   PostingStatus = "open"
	PostingClosed PostingStatus = "closed"

	ApplicationSubmitted = "submitted"

	DefaultJobType = "Full-time"
)
