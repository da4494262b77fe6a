package progress

import "errors"

var (
	ErrDayLocked          = errors.New("training day is locked")
	ErrInvalidContentType = errors.New("content type must be presentation or recording")
	ErrForbidden          = errors.New("cannot access another user's progress")
	ErrUserRequired       = errors.New("user id is required")
)
