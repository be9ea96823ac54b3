package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNoSlotsAvailable = errors.New("no slots available")
	ErrConflict         = errors.New("slot no longer available")
	ErrNotFound         = errors.New("booking not found")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + " " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FormatError reports a malformed clock value such as "9:5x" or 1500 minutes.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid time %q: expected HH:MM between 00:00 and 23:59", e.Value)
}

func (e *FormatError) Unwrap() error { return ErrValidation }
