package core

import (
	"errors"
	"fmt"
)

// Validation errors. These always propagate to the caller.
var (
	ErrEmptyText     = errors.New("note text cannot be empty")
	ErrTooLong       = fmt.Errorf("note text cannot exceed %d characters", MaxTextLength)
	ErrInvalidRecord = errors.New("invalid note data")

	ErrInvalidID        = errors.New("note must have a valid ID")
	ErrInvalidTimestamp = errors.New("note must have a valid creation timestamp")
	ErrInvalidPosition  = errors.New("note must have a valid position with non-negative coordinates")
	ErrInvalidFlag      = errors.New("note editing state must be a boolean")
)

// Storage errors.
var (
	ErrQuotaExceeded = errors.New("cache quota exceeded")
	ErrUnavailable   = errors.New("cache is not available")

	ErrWatchUnsupported = errors.New("cache does not support watching")
)

// Layout and working-set errors.
var (
	ErrLayoutExhausted = errors.New("no free cell found on the board")
	ErrInvalidLayout   = errors.New("invalid board layout")
	ErrPositionTaken   = errors.New("position is already occupied")
	ErrNotFound        = errors.New("note not found")
	ErrNotPending      = errors.New("note is not being edited")
)

// OperationError reports a backing store failure that is neither a quota nor an
// availability problem.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cache operation '%s' failed", e.Op)
	}
	return fmt.Sprintf("cache operation '%s' failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a caller contract violation
// (empty text, oversized text or a malformed record).
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrTooLong) ||
		errors.Is(err, ErrInvalidRecord)
}
