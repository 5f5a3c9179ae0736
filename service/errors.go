package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an id or positional index no longer exists.
// Indexed operations check it defensively so a stale reference is a clean
// failure rather than a panic.
var ErrNotFound = errors.New("not found")

// ValidationError is a user-facing rejection of an operation's input.
// Operations that return it guarantee zero mutation took place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
