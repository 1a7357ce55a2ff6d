package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation references an entry id
	// that does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyActive is returned by start while a session exists.
	ErrAlreadyActive = errors.New("active session exists")

	// ErrNoActiveSession is returned by every session operation other
	// than start when no session is active.
	ErrNoActiveSession = errors.New("no active session")

	// ErrUnauthorized is returned for missing or invalid credentials,
	// kept distinct from business-logic failures so callers can tell
	// "not logged in" from "bad request".
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a malformed or missing field. Nothing is
// persisted when one is returned.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
