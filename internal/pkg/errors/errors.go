package errors

import (
	"errors"
	"fmt"
)

// Custom application errors
var (
	ErrEmptyTitle          = errors.New("title can't be empty")                // Validation: nil or blank title
	ErrInvalidIdentifier   = errors.New("reminder identifier is missing")      // Validation: draft without identifier
	ErrReminderNotFound    = errors.New("reminder not found")                  // Unknown identifier
	ErrFetchFailed         = errors.New("failed to fetch reminders")           // FindAll/FindByID failure
	ErrSaveFailed          = errors.New("failed to save reminder")             // Upsert failure
	ErrDeleteFailed        = errors.New("failed to delete reminder")           // Delete failure (includes not found)
	ErrDeleteAllFailed     = errors.New("failed to delete all reminders")      // DeleteAll failure
	ErrDeleteExpiredFailed = errors.New("failed to delete expired reminders")  // DeleteExpired failure
	ErrScheduling          = errors.New("failed to schedule notification")     // Generic scheduling error
	ErrPermissionDenied    = errors.New("notification permission not granted") // Never surfaced by the service
	ErrDatabaseOperation   = errors.New("database operation failed")           // Generic database error
)

// StoreError is returned by every repository operation that fails.
type StoreError struct {
	Op  string // fetch_all, find, upsert, delete, delete_all, delete_expired, contains
	ID  string // empty for bulk operations
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err as a StoreError for op.
func NewStoreError(op, id string, err error) error {
	return &StoreError{Op: op, ID: id, Err: err}
}

// IsValidation reports whether err is a caller-correctable validation failure,
// as opposed to a persistence failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyTitle) || errors.Is(err, ErrInvalidIdentifier)
}

// IsNotFound reports whether err was caused by an unknown reminder identifier.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrReminderNotFound)
}
