// Package cron runs recurring jobs on preset schedules.
package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/zerowrap"

	"github.com/bnema/dockyard/internal/domain"
)

var (
	// ErrJobRunning is returned when a job is triggered or removed while it
	// is still executing.
	ErrJobRunning = errors.New("job is already running")

	// ErrJobNotFound is returned for unknown job IDs.
	ErrJobNotFound = errors.New("job not found")
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler triggers registered jobs when their next run time has passed.
type Scheduler struct {
	entries map[string]*entry
	mu      sync.RWMutex
	stopCh  chan struct{}
	started atomic.Bool
	wg      sync.WaitGroup
	log     zerowrap.Logger
	nowFn   func() time.Time
	tick    time.Duration
	maxJobs int
}

type entry struct {
	id       string
	name     string
	schedule domain.CronSchedule
	job      Job
	lastRun  time.Time
	nextRun  time.Time
	lastErr  error
	running  atomic.Bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTick sets how often due jobs are checked. Defaults to one minute.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithMaxJobs caps the number of registered jobs. Zero means no cap.
func WithMaxJobs(n int) Option {
	return func(s *Scheduler) {
		if n >= 0 {
			s.maxJobs = n
		}
	}
}

// NewScheduler creates a scheduler.
func NewScheduler(log zerowrap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		entries: make(map[string]*entry),
		stopCh:  make(chan struct{}),
		log:     log,
		tick:    time.Minute,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParsePreset validates a schedule name from configuration.
func ParsePreset(name string) (domain.SchedulePreset, error) {
	preset := domain.SchedulePreset(strings.ToLower(strings.TrimSpace(name)))
	if _, err := nextRun(time.Now(), domain.CronSchedule{Preset: preset}); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	return preset, nil
}

// Add registers a job under id.
func (s *Scheduler) Add(id, name string, sched domain.CronSchedule, job Job) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if job == nil {
		return fmt.Errorf("job is required")
	}

	next, err := nextRun(s.nowFn(), sched)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		return fmt.Errorf("job %q: %w", id, domain.ErrAlreadyExists)
	}
	if s.maxJobs > 0 && len(s.entries) >= s.maxJobs {
		return fmt.Errorf("scheduler is full (%d jobs)", s.maxJobs)
	}

	s.entries[id] = &entry{
		id:       id,
		name:     name,
		schedule: sched,
		job:      job,
		nextRun:  next,
	}
	return nil
}

// Remove unregisters a job. A running job cannot be removed.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("job %q: %w", id, ErrJobNotFound)
	}
	if e.running.Load() {
		return fmt.Errorf("job %q: %w", id, ErrJobRunning)
	}
	delete(s.entries, id)
	return nil
}

// Start launches the scheduling loop. It does nothing when the scheduler was
// stopped, ctx is already done, or the loop is already running.
func (s *Scheduler) Start(ctx context.Context) {
	if ctx.Err() != nil || s.stopped() {
		return
	}
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	ticker := time.NewTicker(s.tick)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		defer s.started.Store(false)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.runDue(ctx)
			}
		}
	}()
}

// Stop ends the scheduling loop and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// List returns the registered jobs ordered by ID.
func (s *Scheduler) List() []domain.CronEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.CronEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, domain.CronEntry{
			ID:       e.id,
			Name:     e.name,
			Schedule: e.schedule,
			LastRun:  e.lastRun,
			NextRun:  e.nextRun,
			Running:  e.running.Load(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// RunNow runs a job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, id string) error {
	s.mu.RLock()
	e := s.entries[id]
	s.mu.RUnlock()
	if e == nil {
		return fmt.Errorf("job %q: %w", id, ErrJobNotFound)
	}
	return s.execute(ctx, e)
}

func (s *Scheduler) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Scheduler) runDue(ctx context.Context) {
	now := s.nowFn()

	s.mu.RLock()
	var due []*entry
	for _, e := range s.entries {
		if !now.Before(e.nextRun) && !e.running.Load() {
			due = append(due, e)
		}
	}
	s.mu.RUnlock()

	for _, e := range due {
		s.wg.Add(1)
		go func(e *entry) {
			defer s.wg.Done()
			if err := s.execute(ctx, e); err != nil && !errors.Is(err, ErrJobRunning) {
				s.log.Warn().
					Err(err).
					Str(zerowrap.FieldComponent, "cron").
					Str("job_id", e.id).
					Msg("scheduled job failed")
			}
		}(e)
	}
}

func (s *Scheduler) execute(ctx context.Context, e *entry) (err error) {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("job %q: %w", e.id, ErrJobRunning)
	}
	defer e.running.Store(false)

	started := s.nowFn()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %q panic: %v", e.id, r)
		}

		next, nextErr := nextRun(s.nowFn(), e.schedule)
		s.mu.Lock()
		e.lastRun = started
		e.lastErr = err
		if nextErr == nil {
			e.nextRun = next
		}
		s.mu.Unlock()
	}()

	s.log.Debug().
		Str(zerowrap.FieldComponent, "cron").
		Str("job_id", e.id).
		Msg("running job")

	return e.job(ctx)
}

// nextRun returns the first preset boundary strictly after now, in UTC:
// hourly on the hour, daily at 02:00, weekly on Sunday at 03:00, monthly on
// the 1st at 04:00.
func nextRun(now time.Time, schedule domain.CronSchedule) (time.Time, error) {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var next time.Time
	var step func(time.Time) time.Time

	switch schedule.Preset {
	case domain.ScheduleHourly:
		next = now.Truncate(time.Hour)
		step = func(t time.Time) time.Time { return t.Add(time.Hour) }
	case domain.ScheduleDaily:
		next = day.Add(2 * time.Hour)
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	case domain.ScheduleWeekly:
		untilSunday := (7 - int(now.Weekday())) % 7
		next = day.AddDate(0, 0, untilSunday).Add(3 * time.Hour)
		step = func(t time.Time) time.Time { return t.AddDate(0, 0, 7) }
	case domain.ScheduleMonthly:
		next = time.Date(now.Year(), now.Month(), 1, 4, 0, 0, 0, time.UTC)
		step = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	default:
		return time.Time{}, fmt.Errorf("unsupported schedule preset: %q", schedule.Preset)
	}

	if !next.After(now) {
		next = step(next)
	}
	return next, nil
}
