package onelake

import "errors"

var (
	ErrNotFound           = errors.New("document not found")
	ErrPreconditionFailed = errors.New("document changed since it was read")
	ErrUnauthorized       = errors.New("document store rejected credentials")
	ErrUnavailable        = errors.New("document store unavailable")
	ErrNoCredentials      = errors.New("no document store credentials configured")
)

// transientError marks failures worth another attempt.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }
