package service

import (
	"context"
	"fmt"
	"reminder/internal/application/dto"
	"reminder/internal/domain/constant"
	"reminder/internal/domain/entity"
	"reminder/internal/domain/repository"
	appErrors "reminder/internal/pkg/errors"
	"reminder/internal/pkg/logger"
	"reminder/internal/pkg/metrics"
	"reminder/internal/pkg/observable"
	"strings"
	"sync"
	"time"
)

// Option configures a reminder service.
type Option func(*reminderService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *reminderService) {
		s.now = now
	}
}

type reminderService struct {
	reminderRepo repository.ReminderRepository
	schedulerSvc NotificationScheduler
	metrics      metrics.Observer
	log          logger.Logger
	now          func() time.Time

	locks     *identifierLocks
	reminders *observable.Subject[[]entity.Reminder]
	status    *observable.Subject[string]

	mu           sync.Mutex // Protects query and the refresh sequence
	query        string
	nextSeq      uint64
	publishMu    sync.Mutex // Orders publishing
	publishedSeq uint64
}

// NewReminderService creates a new instance of ReminderService implementation.
// If the scheduler reports delivered notifications, a delivery refreshes the list.
func NewReminderService(
	reminderRepo repository.ReminderRepository,
	schedulerSvc NotificationScheduler,
	observer metrics.Observer,
	log logger.Logger,
	opts ...Option,
) ReminderService {
	rs := &reminderService{
		reminderRepo: reminderRepo,
		schedulerSvc: schedulerSvc,
		metrics:      metrics.OrNop(observer),
		log:          logger.OrNop(log),
		now:          time.Now,
		locks:        newIdentifierLocks(),
		reminders:    observable.New[[]entity.Reminder](nil),
		status:       observable.New(""),
	}
	for _, opt := range opts {
		opt(rs)
	}

	// Dependency injection workaround: the scheduler calls back into the service.
	if notifier, ok := schedulerSvc.(deliveredNotifier); ok {
		notifier.SetDeliveredHandler(func(ctx context.Context, id string) {
			rs.log.Debug(fmt.Sprintf("Notification for reminder %s delivered, refreshing list", id))
			rs.NotifyExternalChange(ctx)
		})
		rs.log.Info("Delivered handler set for NotificationScheduler.")
	}
	return rs
}

// Save validates and upserts draft, then replaces its notification.
func (s *reminderService) Save(ctx context.Context, draft entity.Reminder) error {
	return s.save(ctx, draft, false)
}

// Update is Save for a reminder that must already exist.
func (s *reminderService) Update(ctx context.Context, draft entity.Reminder) error {
	return s.save(ctx, draft, true)
}

func (s *reminderService) save(ctx context.Context, draft entity.Reminder, mustExist bool) error {
	if draft.Identifier == "" {
		s.setStatus(constant.MsgMissingIdentifier)
		return appErrors.ErrInvalidIdentifier
	}
	if draft.Title == nil || strings.TrimSpace(*draft.Title) == "" {
		s.setStatus(constant.MsgEmptyTitle)
		return appErrors.ErrEmptyTitle
	}
	draft = draft.Clone()

	unlock := s.locks.Lock(draft.Identifier)
	exists, err := s.reminderRepo.Contains(ctx, draft.Identifier)
	if err != nil {
		if mustExist {
			unlock()
			s.metrics.RecordStoreFailure("contains")
			s.log.Error(fmt.Sprintf("Failed to look up reminder %s", draft.Identifier), err)
			s.setStatus(constant.MsgUpdateFailed)
			return fmt.Errorf("%w: %w", appErrors.ErrSaveFailed, err)
		}
		s.log.Warn(fmt.Sprintf("Could not check whether reminder %s exists: %v", draft.Identifier, err))
	}
	if mustExist && !exists {
		unlock()
		return appErrors.NewStoreError("update", draft.Identifier, appErrors.ErrReminderNotFound)
	}

	if err := s.reminderRepo.Upsert(ctx, &draft); err != nil {
		unlock()
		msg := constant.MsgSaveFailed
		if exists {
			msg = constant.MsgUpdateFailed
		}
		s.metrics.RecordStoreFailure("upsert")
		s.log.Error(fmt.Sprintf("Failed to save reminder %s", draft.Identifier), err)
		s.setStatus(msg)
		return fmt.Errorf("%w: %w", appErrors.ErrSaveFailed, err)
	}

	s.reschedule(ctx, draft)
	unlock()

	if exists {
		s.log.Info(fmt.Sprintf("Updated reminder %s", draft.Identifier))
	} else {
		s.log.Info(fmt.Sprintf("Created reminder %s", draft.Identifier))
	}
	s.setStatus("")
	s.refreshCurrent(ctx)
	return nil
}

// reschedule replaces the notification for r. Callers hold r's identifier lock.
func (s *reminderService) reschedule(ctx context.Context, r entity.Reminder) {
	s.schedulerSvc.Cancel(ctx, r.Identifier)

	n, ok := r.Notification()
	if !ok {
		return
	}
	if r.IsExpired(s.now()) {
		s.log.Debug(fmt.Sprintf("Reminder %s is dated in the past, no notification scheduled", r.Identifier))
		return
	}
	if err := s.schedulerSvc.Schedule(ctx, n); err != nil {
		// The reminder stays saved.
		s.log.Error(fmt.Sprintf("Failed to schedule notification for reminder %s", r.Identifier), err)
	}
}

// Delete removes a reminder and cancels its notification.
func (s *reminderService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	if err := s.reminderRepo.Delete(ctx, id); err != nil {
		unlock()
		s.metrics.RecordStoreFailure("delete")
		s.log.Error(fmt.Sprintf("Failed to delete reminder %s", id), err)
		s.setStatus(constant.MsgDeleteFailed)
		return fmt.Errorf("%w: %w", appErrors.ErrDeleteFailed, err)
	}
	s.schedulerSvc.Cancel(ctx, id)
	unlock()

	s.log.Info(fmt.Sprintf("Deleted reminder %s", id))
	s.setStatus("")
	s.refreshCurrent(ctx)
	return nil
}

// DeleteAll removes every reminder and cancels every notification.
func (s *reminderService) DeleteAll(ctx context.Context) error {
	unlock := s.locks.LockAll()
	if err := s.reminderRepo.DeleteAll(ctx); err != nil {
		unlock()
		s.metrics.RecordStoreFailure("delete_all")
		s.log.Error("Failed to delete all reminders", err)
		s.setStatus(constant.MsgDeleteAllFailed)
		return fmt.Errorf("%w: %w", appErrors.ErrDeleteAllFailed, err)
	}
	s.schedulerSvc.CancelAll(ctx)
	unlock()

	s.log.Info("Deleted all reminders")
	s.setStatus("")
	s.refreshCurrent(ctx)
	return nil
}

// DeleteExpired removes reminders dated before now and cancels exactly the
// notifications of the reminders that disappeared.
func (s *reminderService) DeleteExpired(ctx context.Context) ([]*entity.Reminder, error) {
	unlock := s.locks.LockAll()
	defer unlock()

	asOf := s.now()
	before, err := s.reminderRepo.FindAll(ctx)
	if err != nil {
		return nil, s.deleteExpiredFailed(err)
	}

	remaining, err := s.reminderRepo.DeleteExpired(ctx, asOf)
	if err != nil {
		return nil, s.deleteExpiredFailed(err)
	}
	// Taken after the sweep so a fetch of pre-sweep rows always carries a lower number.
	seq := s.beginRefresh()

	removed := removedIdentifiers(before, remaining)
	if len(removed) > 0 {
		s.schedulerSvc.Cancel(ctx, removed...)
	}
	s.log.Info(fmt.Sprintf("Deleted %d expired reminder(s), %d remaining", len(removed), len(remaining)))

	s.setStatus("")
	s.publish(seq, filterReminders(remaining, s.currentQuery()))
	return remaining, nil
}

func (s *reminderService) deleteExpiredFailed(err error) error {
	s.metrics.RecordStoreFailure("delete_expired")
	s.log.Error("Failed to delete expired reminders", err)
	s.setStatus(constant.MsgDeleteExpiredFailed)
	return fmt.Errorf("%w: %w", appErrors.ErrDeleteExpiredFailed, err)
}

// removedIdentifiers returns identifiers in before that are missing from after.
func removedIdentifiers(before, after []*entity.Reminder) []string {
	kept := make(map[string]struct{}, len(after))
	for _, r := range after {
		kept[r.Identifier] = struct{}{}
	}
	var removed []string
	for _, r := range before {
		if _, ok := kept[r.Identifier]; !ok {
			removed = append(removed, r.Identifier)
		}
	}
	return removed
}

// List fetches all reminders, keeps those matching filter and publishes them.
func (s *reminderService) List(ctx context.Context, filter string) ([]*entity.Reminder, error) {
	s.mu.Lock()
	s.query = filter
	s.mu.Unlock()

	list, err := s.refresh(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.setStatus("")
	return list, nil
}

// Find fetches all reminders matching filter without publishing them or
// changing the remembered filter.
func (s *reminderService) Find(ctx context.Context, filter string) ([]*entity.Reminder, error) {
	all, err := s.reminderRepo.FindAll(ctx)
	if err != nil {
		s.metrics.RecordStoreFailure("fetch_all")
		s.log.Error("Failed to fetch reminders", err)
		return nil, fmt.Errorf("%w: %w", appErrors.ErrFetchFailed, err)
	}
	return filterReminders(all, filter), nil
}

// Get retrieves a reminder by its identifier.
func (s *reminderService) Get(ctx context.Context, id string) (*entity.Reminder, error) {
	reminder, err := s.reminderRepo.FindByID(ctx, id)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil, err
		}
		s.metrics.RecordStoreFailure("find")
		s.log.Error(fmt.Sprintf("Failed to get reminder %s", id), err)
		return nil, fmt.Errorf("%w: %w", appErrors.ErrFetchFailed, err)
	}
	return reminder, nil
}

// IsExpired reports whether r is dated strictly before asOf.
func (s *reminderService) IsExpired(r entity.Reminder, asOf time.Time) bool {
	return r.IsExpired(asOf)
}

// ExpiredCount counts expired reminders in the published list.
func (s *reminderService) ExpiredCount(asOf time.Time) int {
	n := 0
	for _, r := range s.reminders.Value() {
		if r.IsExpired(asOf) {
			n++
		}
	}
	return n
}

// HasExpired reports whether the published list has an expired reminder now.
func (s *reminderService) HasExpired() bool {
	return s.ExpiredCount(s.now()) > 0
}

// Items projects the published list for display.
func (s *reminderService) Items() []dto.ReminderItem {
	return dto.ToReminderItemList(s.reminders.Value(), s.now())
}

// InitializeSchedules re-arms notifications for stored future reminders.
// Notifications live in memory only, so this runs once at startup.
func (s *reminderService) InitializeSchedules(ctx context.Context) error {
	s.log.Info("Initializing notification schedules from database...")
	unlock := s.locks.LockAll()
	all, err := s.reminderRepo.FindAll(ctx)
	if err != nil {
		unlock()
		s.metrics.RecordStoreFailure("fetch_all")
		s.log.Error("Failed to fetch reminders for schedule initialization", err)
		return fmt.Errorf("%w: %w", appErrors.ErrFetchFailed, err)
	}

	asOf := s.now()
	scheduled := 0
	for _, r := range all {
		n, ok := r.Notification()
		if !ok || r.IsExpired(asOf) {
			continue
		}
		if err := s.schedulerSvc.Schedule(ctx, n); err != nil {
			s.log.Error(fmt.Sprintf("Failed to schedule notification for reminder %s during initialization", r.Identifier), err)
			continue
		}
		scheduled++
	}
	unlock()

	s.log.Info(fmt.Sprintf("Finished initializing schedules. Scheduled %d of %d reminder(s).", scheduled, len(all)))
	s.refreshCurrent(ctx)
	return nil
}

// NotifyExternalChange refreshes the published list unconditionally.
func (s *reminderService) NotifyExternalChange(ctx context.Context) {
	s.refreshCurrent(ctx)
}

// Watch calls NotifyExternalChange for every event until ctx is done or
// events is closed.
func (s *reminderService) Watch(ctx context.Context, events <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.log.Debug(fmt.Sprintf("External change signal: %s", event))
			s.NotifyExternalChange(ctx)
		}
	}
}

// Reminders is the published reminder list.
func (s *reminderService) Reminders() *observable.Subject[[]entity.Reminder] {
	return s.reminders
}

// Status is the published status message.
func (s *reminderService) Status() *observable.Subject[string] {
	return s.status
}

func (s *reminderService) currentQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *reminderService) refreshCurrent(ctx context.Context) {
	if _, err := s.refresh(ctx, s.currentQuery()); err != nil {
		s.log.Warn(fmt.Sprintf("List refresh failed: %v", err))
	}
}

// refresh fetches, filters and publishes. A result is dropped if a refresh
// that started later has already been published.
func (s *reminderService) refresh(ctx context.Context, query string) ([]*entity.Reminder, error) {
	seq := s.beginRefresh()
	all, err := s.reminderRepo.FindAll(ctx)
	if err != nil {
		s.metrics.RecordStoreFailure("fetch_all")
		s.log.Error("Failed to fetch reminders", err)
		s.setStatus(constant.MsgFetchFailed)
		return nil, fmt.Errorf("%w: %w", appErrors.ErrFetchFailed, err)
	}
	list := filterReminders(all, query)
	s.publish(seq, list)
	return list, nil
}

func (s *reminderService) beginRefresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

func (s *reminderService) publish(seq uint64, list []*entity.Reminder) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if seq < s.publishedSeq {
		s.log.Debug(fmt.Sprintf("Dropping stale reminder list (refresh %d, published %d)", seq, s.publishedSeq))
		return
	}
	s.publishedSeq = seq

	values := make([]entity.Reminder, len(list))
	for i, r := range list {
		values[i] = r.Clone()
	}
	s.reminders.Emit(values)
}

func (s *reminderService) setStatus(msg string) {
	if s.status.Value() == msg {
		return
	}
	s.status.Emit(msg)
}

func filterReminders(all []*entity.Reminder, query string) []*entity.Reminder {
	if query == "" {
		return all
	}
	out := make([]*entity.Reminder, 0, len(all))
	for _, r := range all {
		if r.Matches(query) {
			out = append(out, r)
		}
	}
	return out
}
