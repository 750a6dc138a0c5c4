package repository

import (
	"context"
	"reminder/internal/domain/entity"
	"time"
)

// ReminderRepository defines the interface for reminder data operations.
// Every failure is returned as an *errors.StoreError.
type ReminderRepository interface {
	// FindAll retrieves all reminders ordered by due date ascending, undated last.
	FindAll(ctx context.Context) ([]*entity.Reminder, error)
	// FindByID retrieves a reminder by its identifier.
	FindByID(ctx context.Context, id string) (*entity.Reminder, error)
	// Upsert inserts the reminder, or replaces every field if the identifier is known.
	Upsert(ctx context.Context, reminder *entity.Reminder) error
	// Delete deletes a reminder by its identifier. Unknown identifiers fail with ErrReminderNotFound.
	Delete(ctx context.Context, id string) error
	// DeleteAll deletes every reminder. Deleting from an empty store succeeds.
	DeleteAll(ctx context.Context) error
	// DeleteExpired atomically deletes reminders dated before asOf and returns the survivors.
	DeleteExpired(ctx context.Context, asOf time.Time) ([]*entity.Reminder, error)
	// Contains reports whether a reminder with the identifier exists.
	Contains(ctx context.Context, id string) (bool, error)
}
