package content

import (
	"context"
	"errors"

	"github.com/mo-amir99/training-portal/internal/onelake"
)

var (
	ErrDayNotFound       = errors.New("training day not found")
	ErrRecordingNotFound = errors.New("recording not found")
	ErrInvalidDayNumber  = errors.New("day number must be positive")
	ErrInvalidPlatform   = errors.New("unknown video platform")
	ErrTitleRequired     = errors.New("title is required")
	ErrVideoURLRequired  = errors.New("video url is required")
	ErrWriteConflict     = errors.New("document kept changing during write")
	ErrMalformedDocument = errors.New("stored document is malformed")
)

// Outcome tags the result of a content operation for callers that need to react
// differently to a missing entry and a flaky store.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeTransient Outcome = "transient"
	OutcomeFatal     Outcome = "fatal"
)

// Classify maps an operation error onto an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrDayNotFound),
		errors.Is(err, ErrRecordingNotFound),
		errors.Is(err, onelake.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrWriteConflict),
		errors.Is(err, onelake.ErrUnavailable),
		errors.Is(err, onelake.ErrPreconditionFailed),
		errors.Is(err, context.DeadlineExceeded):
		return OutcomeTransient
	default:
		return OutcomeFatal
	}
}
