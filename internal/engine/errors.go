package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a failure while processing one event.
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// EventID identifies the failed event.
	EventID string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidEvent indicates an event missing required fields.
	ErrCodeInvalidEvent RuntimeErrorCode = "INVALID_EVENT"

	// ErrCodeUnknownModule indicates a command for a module that does not exist.
	ErrCodeUnknownModule RuntimeErrorCode = "UNKNOWN_MODULE"

	// ErrCodeInsertFailed indicates a message could not be logged.
	ErrCodeInsertFailed RuntimeErrorCode = "INSERT_FAILED"

	// ErrCodeReadFailed indicates a backlog or search read failed.
	ErrCodeReadFailed RuntimeErrorCode = "READ_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.EventID != "" {
		msg += fmt.Sprintf(" (event=%s)", e.EventID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsInsertError returns true if err reports a dropped log message.
// Uses errors.As to handle wrapped errors.
func IsInsertError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInsertFailed
	}
	return false
}

func newRuntimeError(code RuntimeErrorCode, ev Event, err error, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		EventID: ev.ID,
		Err:     err,
	}
}
