// Package domain contains the core business entities for studyflow: study
// sessions, their notes, derived statistics and the reward tables. Everything
// here is pure; persistence and orchestration live in the services layer.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors.
var (
	ErrValidation           = errors.New("validation failed")
	ErrPersistence          = errors.New("persistence failed")
	ErrSessionAlreadyActive = errors.New("session already active")
	ErrNoActiveSession      = errors.New("no active session")
	ErrSessionNotFound      = errors.New("session not found")
)

// ValidationError reports user input that was rejected before any state
// change or persistence attempt.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is lets callers match any validation failure with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PersistenceError wraps a failed read or write against the record store.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is lets callers match any store failure with errors.Is(err, ErrPersistence).
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
