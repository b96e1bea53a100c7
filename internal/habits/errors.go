package habits

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the base error for missing habits and log entries.
	ErrNotFound = errors.New("not found")
	// ErrHabitNotFound indicates the habit does not exist for the caller.
	ErrHabitNotFound = fmt.Errorf("habit %w", ErrNotFound)
	// ErrEntryNotFound indicates no log entry exists for the habit and day.
	ErrEntryNotFound = fmt.Errorf("log entry %w", ErrNotFound)
	// ErrDuplicateCompletion indicates the habit is already logged for the day.
	ErrDuplicateCompletion = errors.New("habit already logged for this date")
	// ErrPersistence wraps storage failures. Its cause is never shown to clients.
	ErrPersistence = errors.New("persistence failure")
)

// persistenceError wraps a storage failure with ErrPersistence.
func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
