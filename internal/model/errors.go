package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation invalid user input
	ErrValidation = fmt.Errorf("validation failed")
	// ErrConflict state transition not allowed for the owner
	ErrConflict = fmt.Errorf("conflict")
	// ErrAlreadyRunning counter already has an open interval (informational)
	ErrAlreadyRunning = fmt.Errorf("counter already running: %w", ErrConflict)
	// ErrNoActiveInterval counter has no open interval (informational)
	ErrNoActiveInterval = fmt.Errorf("no active interval: %w", ErrConflict)
	// ErrNotFound entity missing or not owned by the caller
	ErrNotFound = fmt.Errorf("not found")
	// ErrStorage database or queue failure
	ErrStorage = fmt.Errorf("storage error")
)

// FieldError validation error bound to a single input field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidation
func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// NewFieldError creates a validation error for field
func NewFieldError(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// ConflictError builds a cross-counter conflict with a user-facing message
func ConflictError(message string) error {
	return fmt.Errorf("%s: %w", message, ErrConflict)
}

// StorageError wraps a driver failure so callers can classify it
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	// already classified errors pass through untouched
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorage, err)
}

// IsInformational reports whether err is a benign no-op outcome
func IsInformational(err error) bool {
	return errors.Is(err, ErrAlreadyRunning) || errors.Is(err, ErrNoActiveInterval)
}
