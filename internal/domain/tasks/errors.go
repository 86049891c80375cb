package tasks

import "errors"

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskCompleted    = errors.New("completed tasks cannot change")
	ErrInvalidStatus    = errors.New("status must be Pending, In Progress or Completed")
	ErrTitleRequired    = errors.New("title is required")
	ErrAssigneeRequired = errors.New("assignee email is required")
	ErrUnknownAssignee  = errors.New("no employee has that email")
	ErrInvalidDueDate   = errors.New("due date must be YYYY-MM-DD")
	ErrNotesTooLong     = errors.New("notes are too long")
)
