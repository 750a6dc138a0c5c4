package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"reminder/internal/domain/entity"
	appErrors "reminder/internal/pkg/errors"
)

// fakeRepo is an in-memory ReminderRepository with injectable failures.
type fakeRepo struct {
	mu      sync.Mutex
	records map[string]entity.Reminder
	err     error            // returned by every operation when set
	failOn  map[string]error // returned by the named operation
	calls   []string
	// afterFetch runs inside FindAll after the snapshot is taken.
	afterFetch func()
	// beforeWrite runs at the start of every mutating operation, outside the lock.
	beforeWrite func(op string)
}

func newFakeRepo(reminders ...entity.Reminder) *fakeRepo {
	r := &fakeRepo{records: make(map[string]entity.Reminder)}
	for _, rem := range reminders {
		r.records[rem.Identifier] = rem.Clone()
	}
	return r
}

func (r *fakeRepo) record(op string) error {
	r.calls = append(r.calls, op)
	if err, ok := r.failOn[op]; ok {
		return appErrors.NewStoreError(op, "", err)
	}
	if r.err != nil {
		return appErrors.NewStoreError(op, "", r.err)
	}
	return nil
}

func (r *fakeRepo) sortedLocked() []*entity.Reminder {
	out := make([]*entity.Reminder, 0, len(r.records))
	for _, rem := range r.records {
		c := rem.Clone()
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Date == nil && b.Date == nil:
			return a.Identifier < b.Identifier
		case a.Date == nil:
			return false
		case b.Date == nil:
			return true
		case !a.Date.Equal(*b.Date):
			return a.Date.Before(*b.Date)
		}
		return a.Identifier < b.Identifier
	})
	return out
}

func (r *fakeRepo) FindAll(ctx context.Context) ([]*entity.Reminder, error) {
	r.mu.Lock()
	if err := r.record("fetch_all"); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	snapshot := r.sortedLocked()
	hook := r.afterFetch
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return snapshot, nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id string) (*entity.Reminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("find"); err != nil {
		return nil, err
	}
	rem, ok := r.records[id]
	if !ok {
		return nil, appErrors.NewStoreError("find", id, appErrors.ErrReminderNotFound)
	}
	c := rem.Clone()
	return &c, nil
}

func (r *fakeRepo) Upsert(ctx context.Context, reminder *entity.Reminder) error {
	r.runBeforeWrite("upsert")
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("upsert"); err != nil {
		return err
	}
	r.records[reminder.Identifier] = reminder.Clone()
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.runBeforeWrite("delete")
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("delete"); err != nil {
		return err
	}
	if _, ok := r.records[id]; !ok {
		return appErrors.NewStoreError("delete", id, appErrors.ErrReminderNotFound)
	}
	delete(r.records, id)
	return nil
}

func (r *fakeRepo) DeleteAll(ctx context.Context) error {
	r.runBeforeWrite("delete_all")
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("delete_all"); err != nil {
		return err
	}
	r.records = make(map[string]entity.Reminder)
	return nil
}

func (r *fakeRepo) DeleteExpired(ctx context.Context, asOf time.Time) ([]*entity.Reminder, error) {
	r.runBeforeWrite("delete_expired")
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("delete_expired"); err != nil {
		return nil, err
	}
	for id, rem := range r.records {
		if rem.IsExpired(asOf) {
			delete(r.records, id)
		}
	}
	return r.sortedLocked(), nil
}

func (r *fakeRepo) Contains(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.record("contains"); err != nil {
		return false, err
	}
	_, ok := r.records[id]
	return ok, nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func (r *fakeRepo) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *fakeRepo) failOp(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn == nil {
		r.failOn = make(map[string]error)
	}
	r.failOn[op] = err
}

func (r *fakeRepo) setAfterFetch(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterFetch = fn
}

func (r *fakeRepo) setBeforeWrite(fn func(op string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeWrite = fn
}

func (r *fakeRepo) runBeforeWrite(op string) {
	r.mu.Lock()
	hook := r.beforeWrite
	r.mu.Unlock()
	if hook != nil {
		hook(op)
	}
}

func (r *fakeRepo) put(rem entity.Reminder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rem.Identifier] = rem.Clone()
}

func (r *fakeRepo) resetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *fakeRepo) callCount(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == op {
			n++
		}
	}
	return n
}

// fakeScheduler records scheduler state in memory.
type fakeScheduler struct {
	mu          sync.Mutex
	pending     map[string]entity.Notification
	scheduleErr error
	log         []string // "schedule:<id>", "cancel:<id>", "cancel_all"
	handler     func(ctx context.Context, id string)
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[string]entity.Notification)}
}

func (s *fakeScheduler) Schedule(ctx context.Context, n entity.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, "schedule:"+n.Identifier)
	if s.scheduleErr != nil {
		return s.scheduleErr
	}
	s.pending[n.Identifier] = n
	return nil
}

func (s *fakeScheduler) Cancel(ctx context.Context, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.log = append(s.log, "cancel:"+id)
		delete(s.pending, id)
	}
}

func (s *fakeScheduler) CancelAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, "cancel_all")
	s.pending = make(map[string]entity.Notification)
}

func (s *fakeScheduler) Pending() []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Notification, 0, len(s.pending))
	for _, n := range s.pending {
		out = append(out, n)
	}
	sortNotifications(out)
	return out
}

func (s *fakeScheduler) Delivered() []entity.Notification { return nil }

func (s *fakeScheduler) Stop() {}

func (s *fakeScheduler) SetDeliveredHandler(handler func(ctx context.Context, id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

func (s *fakeScheduler) entry(id string) (entity.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.pending[id]
	return n, ok
}

func (s *fakeScheduler) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

func (s *fakeScheduler) fireDelivered(ctx context.Context, id string) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler != nil {
		handler(ctx, id)
	}
}

func (s *fakeScheduler) setScheduleErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleErr = err
}

func (s *fakeScheduler) resetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
}

// recordingDeliverer captures delivered notifications.
type recordingDeliverer struct {
	mu  sync.Mutex
	got []entity.Notification
	err error
}

func (d *recordingDeliverer) Deliver(ctx context.Context, n entity.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.got = append(d.got, n)
	return nil
}

func (d *recordingDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.got)
}

// countingAuthorizer grants once asked more than denyFirst times.
type countingAuthorizer struct {
	mu        sync.Mutex
	denyFirst int
	asked     int
}

func (a *countingAuthorizer) RequestAuthorization(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.asked++
	return a.asked > a.denyFirst, nil
}

func (a *countingAuthorizer) askedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.asked
}
