package lifecycle

import (
	"errors"
	"fmt"

	"github.com/erazemk/revival/internal/store"
)

// Error kinds returned by Manager operations. Use errors.Is to classify.
var (
	ErrValidation = errors.New("validation error")
	ErrDuplicate  = errors.New("duplicate item")
	ErrConflict   = errors.New("edit conflict")
	ErrStorage    = errors.New("storage error")
	ErrNotFound   = errors.New("item not found")
)

// StorageError reports a failure of the underlying database.
type StorageError struct {
	Op        string
	Err       error
	Retryable bool
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

// Unwrap makes a StorageError match both ErrStorage and the cause.
func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// classify passes domain errors through and wraps everything else as a
// StorageError. A unique index violation is mapped to dup, which is
// ErrDuplicate for inserts and ErrConflict for edits.
func classify(op string, err error, dup error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrConflict), errors.Is(err, ErrStorage):
		return err
	case store.IsUniqueViolation(err):
		return fmt.Errorf("%w: %w", dup, err)
	default:
		return &StorageError{Op: op, Err: err, Retryable: store.IsBusy(err)}
	}
}

// Retryable reports whether err is a transient storage failure, such as the
// database file being locked by another process.
func Retryable(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Retryable
}

// Describe turns an operation error into a message for the user.
func Describe(err error) string {
	switch {
	case err == nil:
		return "done"
	case Retryable(err):
		return err.Error() + " (the database is busy, try again)"
	case errors.Is(err, ErrStorage):
		return err.Error() + " (the failed change was not applied)"
	default:
		return err.Error()
	}
}
