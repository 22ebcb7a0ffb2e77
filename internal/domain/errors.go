package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrActivityNotFound is returned when an activity cannot be located in
	// the current scope.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrNoScope is returned when a mutation is attempted before both a user
	// and a date are selected.
	ErrNoScope = errors.New("no user and date selected")
	// ErrMutationInFlight rejects a mutation issued while another one has not
	// completed for the same ledger.
	ErrMutationInFlight = errors.New("another mutation is in flight")
	// ErrStaleScope indicates the scope changed while an operation was in
	// flight; its result was discarded.
	ErrStaleScope = errors.New("scope changed while operation was in flight")
)

// ValidationError reports bad user input. No I/O is attempted and no state
// changes when a mutation fails validation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError reports a failed remote store call. The ledger stays at its
// last confirmed remote state.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "remote " + e.Op + " failed: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
