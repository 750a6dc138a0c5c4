package notifier

import (
	"context"
	"fmt"
	"reminder/internal/domain/entity"
	"reminder/internal/pkg/logger"
)

// LogDeliverer writes fired notifications to the application log. It is the
// default when no push channel is configured.
type LogDeliverer struct {
	log logger.Logger
}

// NewLogDeliverer creates a LogDeliverer.
func NewLogDeliverer(log logger.Logger) *LogDeliverer {
	return &LogDeliverer{log: logger.OrNop(log)}
}

// Deliver logs n.
func (d *LogDeliverer) Deliver(ctx context.Context, n entity.Notification) error {
	if n.Body != "" {
		d.log.Info(fmt.Sprintf("🔔 %s: %s (reminder %s)", n.Title, n.Body, n.Identifier))
	} else {
		d.log.Info(fmt.Sprintf("🔔 %s (reminder %s)", n.Title, n.Identifier))
	}
	return nil
}

// StaticAuthorizer answers permission requests with a fixed decision taken
// from configuration (NOTIFICATIONS_ENABLED).
type StaticAuthorizer struct {
	granted bool
}

// NewStaticAuthorizer creates a StaticAuthorizer.
func NewStaticAuthorizer(granted bool) *StaticAuthorizer {
	return &StaticAuthorizer{granted: granted}
}

// RequestAuthorization returns the configured decision.
func (a *StaticAuthorizer) RequestAuthorization(ctx context.Context) (bool, error) {
	return a.granted, nil
}
