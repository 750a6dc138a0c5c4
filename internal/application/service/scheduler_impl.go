package service

import (
	"context"
	"fmt"
	"reminder/internal/domain/entity"
	"reminder/internal/infrastructure/scheduler"
	appErrors "reminder/internal/pkg/errors"
	"reminder/internal/pkg/logger"
	"reminder/internal/pkg/metrics"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"
)

// pendingJob is an armed cron entry. gen tells a firing job whether it is
// still the current entry for its identifier.
type pendingJob struct {
	entryID      cron.EntryID
	gen          uint64
	notification entity.Notification
}

type deliveredEntry struct {
	gen          uint64
	notification entity.Notification
}

type schedulerService struct {
	cronScheduler *scheduler.Scheduler // The infrastructure scheduler
	deliverer     Deliverer
	authorizer    Authorizer
	metrics       metrics.Observer
	log           logger.Logger
	// Set by the reminder service so a fired notification refreshes its list.
	handleDeliveredFunc func(ctx context.Context, id string)

	mu         sync.Mutex // Protects everything below
	authorized bool
	gen        uint64
	pending    map[string]pendingJob
	delivered  map[string]deliveredEntry
}

// NewSchedulerService creates a NotificationScheduler over cron one-shot entries.
// A nil authorizer grants permission; a nil deliverer only logs.
func NewSchedulerService(
	cronScheduler *scheduler.Scheduler,
	deliverer Deliverer,
	authorizer Authorizer,
	observer metrics.Observer,
	log logger.Logger,
) NotificationScheduler {
	return &schedulerService{
		cronScheduler: cronScheduler,
		deliverer:     deliverer,
		authorizer:    authorizer,
		metrics:       metrics.OrNop(observer),
		log:           logger.OrNop(log),
		pending:       make(map[string]pendingJob),
		delivered:     make(map[string]deliveredEntry),
	}
}

// SetDeliveredHandler sets the function called after a notification was delivered.
// This is called during dependency injection setup to break the circular dependency.
func (s *schedulerService) SetDeliveredHandler(handler func(ctx context.Context, id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handleDeliveredFunc = handler
}

// Schedule arms a one-shot job for n, replacing any entry with the same identifier.
func (s *schedulerService) Schedule(ctx context.Context, n entity.Notification) error {
	if n.Identifier == "" || n.FireAt.IsZero() {
		return fmt.Errorf("%w: notification needs an identifier and a fire time", appErrors.ErrScheduling)
	}

	granted, err := s.authorize(ctx)
	if err != nil {
		s.log.Warn(fmt.Sprintf("Notification permission request failed for %s, skipping: %v", n.Identifier, err))
		return nil
	}
	if !granted {
		s.log.Debug(fmt.Sprintf("Notification permission denied, not scheduling %s", n.Identifier))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(n.Identifier)

	s.gen++
	gen := s.gen
	entryID, err := s.cronScheduler.AddOnce(n.FireAt, func() {
		s.fire(n.Identifier, gen)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrScheduling, err)
	}
	s.pending[n.Identifier] = pendingJob{entryID: entryID, gen: gen, notification: n}
	s.metrics.RecordScheduled()
	s.log.Info(fmt.Sprintf("Scheduled notification for reminder %s at %v (Job ID: %d)", n.Identifier, n.FireAt, entryID))
	return nil
}

// Cancel removes pending and delivered notifications for ids.
func (s *schedulerService) Cancel(ctx context.Context, ids ...string) {
	s.mu.Lock()
	removed := 0
	for _, id := range ids {
		removed += s.cancelLocked(id)
	}
	s.mu.Unlock()

	s.metrics.RecordCancelled(removed)
	if removed > 0 {
		s.log.Info(fmt.Sprintf("Cancelled %d notification(s) for %d reminder(s)", removed, len(ids)))
	}
}

// CancelAll removes every pending and delivered notification.
func (s *schedulerService) CancelAll(ctx context.Context) {
	s.mu.Lock()
	removed := 0
	for id := range s.pending {
		removed += s.cancelLocked(id)
	}
	for id := range s.delivered {
		removed += s.cancelLocked(id)
	}
	s.mu.Unlock()

	s.metrics.RecordCancelled(removed)
	s.log.Info(fmt.Sprintf("Cancelled all notifications (%d removed)", removed))
}

// cancelLocked drops both entries for id and returns how many existed.
func (s *schedulerService) cancelLocked(id string) int {
	removed := 0
	if job, ok := s.pending[id]; ok {
		s.cronScheduler.RemoveJob(job.entryID)
		delete(s.pending, id)
		removed++
	}
	if _, ok := s.delivered[id]; ok {
		delete(s.delivered, id)
		removed++
	}
	if removed == 0 {
		s.log.Debug(fmt.Sprintf("No notification found for reminder %s to cancel.", id))
	}
	return removed
}

// fire runs on the cron goroutine when a one-shot entry is due.
func (s *schedulerService) fire(id string, gen uint64) {
	s.mu.Lock()
	job, ok := s.pending[id]
	if !ok || job.gen != gen {
		s.mu.Unlock()
		s.log.Debug(fmt.Sprintf("Stale notification job for reminder %s ignored", id))
		return
	}
	delete(s.pending, id)
	s.delivered[id] = deliveredEntry{gen: gen, notification: job.notification}
	handler := s.handleDeliveredFunc
	s.mu.Unlock()

	// One-shot entries stay in cron with a zero next time until removed.
	s.cronScheduler.RemoveJob(job.entryID)

	ctx := context.Background()
	s.log.Info(fmt.Sprintf("Executing notification job for reminder %s", id))
	err := s.deliver(ctx, job.notification)
	s.metrics.RecordDelivered(err)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to deliver notification for reminder %s", id), err)
		s.mu.Lock()
		if entry, ok := s.delivered[id]; ok && entry.gen == gen {
			delete(s.delivered, id)
		}
		s.mu.Unlock()
		return
	}

	if handler != nil {
		handler(ctx, id)
	}
}

func (s *schedulerService) deliver(ctx context.Context, n entity.Notification) error {
	if s.deliverer == nil {
		s.log.Info(fmt.Sprintf("Notification %s: %s", n.Identifier, n.Title))
		return nil
	}
	return s.deliverer.Deliver(ctx, n)
}

// authorize asks for permission until it has been granted once.
func (s *schedulerService) authorize(ctx context.Context) (bool, error) {
	s.mu.Lock()
	granted := s.authorized
	s.mu.Unlock()
	if granted || s.authorizer == nil {
		return true, nil
	}

	granted, err := s.authorizer.RequestAuthorization(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", appErrors.ErrPermissionDenied, err)
	}
	if granted {
		s.mu.Lock()
		s.authorized = true
		s.mu.Unlock()
	}
	return granted, nil
}

// Pending returns notifications that have not fired yet.
func (s *schedulerService) Pending() []entity.Notification {
	s.mu.Lock()
	out := make([]entity.Notification, 0, len(s.pending))
	for _, job := range s.pending {
		out = append(out, job.notification)
	}
	s.mu.Unlock()
	sortNotifications(out)
	return out
}

// Delivered returns notifications that fired and are still listed.
func (s *schedulerService) Delivered() []entity.Notification {
	s.mu.Lock()
	out := make([]entity.Notification, 0, len(s.delivered))
	for _, entry := range s.delivered {
		out = append(out, entry.notification)
	}
	s.mu.Unlock()
	sortNotifications(out)
	return out
}

// Stop stops the underlying scheduler.
func (s *schedulerService) Stop() {
	s.cronScheduler.Stop()
}

func sortNotifications(ns []entity.Notification) {
	sort.Slice(ns, func(i, j int) bool {
		if !ns[i].FireAt.Equal(ns[j].FireAt) {
			return ns[i].FireAt.Before(ns[j].FireAt)
		}
		return ns[i].Identifier < ns[j].Identifier
	})
}
