package scheduler

import (
	"fmt"
	"reminder/internal/pkg/logger"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron jobs.
type Scheduler struct {
	cron *cron.Cron
	log  logger.Logger
	mu   sync.Mutex // To protect access to job management
}

// NewScheduler creates and starts a cron scheduler with seconds precision.
func NewScheduler(log logger.Logger) *Scheduler {
	log = logger.OrNop(log)
	c := cron.New(cron.WithSeconds())
	c.Start()
	log.Info("Cron scheduler started.")
	return &Scheduler{
		cron: c,
		log:  log,
	}
}

// onceSchedule fires a single time at at.
type onceSchedule struct {
	at time.Time
}

// Next returns at while it lies after t, then the zero time, which cron
// treats as "never run again".
func (s onceSchedule) Next(t time.Time) time.Time {
	if s.at.After(t) {
		return s.at
	}
	return time.Time{}
}

// AddJob adds a recurring job to the scheduler.
// spec follows the cron format with seconds (e.g., "0 30 * * * *").
func (s *Scheduler) AddJob(spec string, cmd func()) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, cmd)
	if err != nil {
		s.log.Error("Failed to add cron job", err)
		return 0, fmt.Errorf("failed to add cron job: %w", err)
	}
	s.log.Info(fmt.Sprintf("Added cron job with ID %d, spec: %s", id, spec))
	return id, nil
}

// AddOnce adds a job that runs once at at. A time that is not in the future is
// accepted, the entry just never fires.
func (s *Scheduler) AddOnce(at time.Time, cmd func()) (cron.EntryID, error) {
	if at.IsZero() {
		return 0, fmt.Errorf("failed to add one-shot job: zero time")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.cron.Schedule(onceSchedule{at: at}, cron.FuncJob(cmd))
	s.log.Debug(fmt.Sprintf("Added one-shot job with ID %d at %v", id, at))
	return id, nil
}

// RemoveJob removes a job from the scheduler by its EntryID.
func (s *Scheduler) RemoveJob(id cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Remove(id)
	s.log.Debug(fmt.Sprintf("Removed cron job with ID %d", id))
}

// ValidateSpec reports whether spec parses with this scheduler's parser.
func ValidateSpec(spec string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

// Stop stops the cron scheduler and waits for running jobs to complete.
// The lock is not held while waiting, running jobs may remove themselves.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()

	if c != nil {
		ctx := c.Stop()
		<-ctx.Done()
		s.log.Info("Cron scheduler stopped.")
	}
}

// GetEntries returns the list of scheduled entries. Useful for debugging.
func (s *Scheduler) GetEntries() []cron.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron.Entries()
}
