package recruitment

import "errors"

var (
	ErrPostingNotFound    = errors.New("job posting not found")
	ErrPostingClosed      = errors.New("job posting is closed")
	ErrInvalidStatus      = errors.New("status must be open or closed")
	ErrTitleRequired      = errors.New("title is required")
	ErrDepartmentRequired = errors.New("department is required")
	ErrNameRequired       = errors.New("candidate name is required")
	ErrInvalidResumeLink  = errors.New("resume link must be an http(s) URL")
)
