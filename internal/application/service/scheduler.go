package service

import (
	"context"
	"reminder/internal/domain/entity"
)

// NotificationScheduler defines the interface over the local notification facility.
type NotificationScheduler interface {
	// Schedule arms a notification, replacing any entry with the same identifier.
	// If permission is denied the call is a silent no-op.
	Schedule(ctx context.Context, n entity.Notification) error
	// Cancel removes pending and delivered entries for the identifiers, best effort.
	Cancel(ctx context.Context, ids ...string)
	// CancelAll removes every pending and delivered entry.
	CancelAll(ctx context.Context)
	// Pending returns notifications that have not fired yet, by fire time.
	Pending() []entity.Notification
	// Delivered returns notifications that fired and were not cancelled, by fire time.
	Delivered() []entity.Notification
	// Stop stops the underlying scheduler.
	Stop()
}

// Deliverer hands a fired notification to the user.
type Deliverer interface {
	Deliver(ctx context.Context, n entity.Notification) error
}

// Authorizer grants or denies permission to post notifications.
type Authorizer interface {
	RequestAuthorization(ctx context.Context) (bool, error)
}

// deliveredNotifier is implemented by schedulers that report fired notifications.
type deliveredNotifier interface {
	SetDeliveredHandler(handler func(ctx context.Context, id string))
}
