package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced id does not exist in the store at all.
	ErrNotFound = errors.New("record not found")
	// ErrForbidden means the id exists but belongs to another user.
	ErrForbidden = errors.New("record owned by another user")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}
