package tasks

const (
	CollectionTasks = "tasks"

	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"

	DateLayout = "2006-01-02"

	maxNotesLength = 4000
)
