package performance

import "errors"

var (
	ErrRatingNotFound  = errors.New("performance rating not found")
	ErrRatingRange     = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong  = errors.New("comment is too long")
	ErrEmployeeID      = errors.New("employee id is required")
	ErrUnknownEmployee = errors.New("employee does not exist")
)
