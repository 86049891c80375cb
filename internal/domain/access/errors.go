package access

import "errors"

var (
	ErrUnknownRole = errors.New("unknown role")
	ErrForbidden   = errors.New("operation not permitted for role")
	ErrNoChanges   = errors.New("no configuration changes supplied")
)
