package service

import (
	"context"
	"reminder/internal/application/dto"
	"reminder/internal/domain/entity"
	"reminder/internal/pkg/observable"
	"time"
)

// ReminderService defines the interface for reminder-related business logic.
// Every persisted reminder has at most one pending or delivered notification,
// keyed by its identifier.
type ReminderService interface {
	// Save validates and upserts draft, then replaces its notification.
	Save(ctx context.Context, draft entity.Reminder) error
	// Update is Save for an existing reminder; unknown identifiers are not found.
	Update(ctx context.Context, draft entity.Reminder) error
	// Delete removes a reminder and cancels its notification.
	Delete(ctx context.Context, id string) error
	// DeleteAll removes every reminder and cancels every notification.
	DeleteAll(ctx context.Context) error
	// DeleteExpired removes reminders dated before now and returns the survivors.
	DeleteExpired(ctx context.Context) ([]*entity.Reminder, error)
	// List fetches all reminders and keeps those matching filter.
	// The filter is remembered for refreshes after later mutations.
	List(ctx context.Context, filter string) ([]*entity.Reminder, error)
	// Find fetches reminders matching filter without touching the published list.
	Find(ctx context.Context, filter string) ([]*entity.Reminder, error)
	// Get retrieves a reminder by its identifier.
	Get(ctx context.Context, id string) (*entity.Reminder, error)
	// IsExpired reports whether r is dated strictly before asOf.
	IsExpired(r entity.Reminder, asOf time.Time) bool
	// ExpiredCount counts expired reminders in the published list.
	ExpiredCount(asOf time.Time) int
	// HasExpired reports whether the published list has an expired reminder now.
	HasExpired() bool
	// Items projects the published list for display.
	Items() []dto.ReminderItem
	// InitializeSchedules re-arms notifications for stored future reminders.
	InitializeSchedules(ctx context.Context) error
	// NotifyExternalChange refreshes the published list unconditionally.
	NotifyExternalChange(ctx context.Context)
	// Watch calls NotifyExternalChange for every event until ctx is done or
	// events is closed.
	Watch(ctx context.Context, events <-chan string)
	// Reminders is the published reminder list.
	Reminders() *observable.Subject[[]entity.Reminder]
	// Status is the published status message, empty when the last action succeeded.
	Status() *observable.Subject[string]
}
