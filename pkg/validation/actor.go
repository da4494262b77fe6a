// Package validation checks free-form values before they are written to the store.
package validation

import (
	"errors"
	"regexp"
	"strings"
)

const maxActorLength = 64

var actorPattern = regexp.MustCompile(`^[\p{L}\p{N} ._@+\-]+$`)

var ErrInvalidActor = errors.New("actor must be 1-64 characters of letters, digits, spaces or . _ @ + -")

// NormalizeActor trims an admin name recorded in unlockedBy/uploadedBy and
// rejects control characters and overly long values.
func NormalizeActor(value string) (string, error) {
	actor := strings.TrimSpace(value)
	if actor == "" || len([]rune(actor)) > maxActorLength || !actorPattern.MatchString(actor) {
		return "", ErrInvalidActor
	}
	return actor, nil
}
