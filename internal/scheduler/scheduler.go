// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookkinder/internal/logger"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

var nowFunc = time.Now

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks a five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// DescribeSchedule returns a human-readable description of a cron schedule.
func DescribeSchedule(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

type entry struct {
	id       cron.EntryID
	schedule string
	job      Job
}

// Scheduler runs named jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron

	mu         sync.RWMutex
	entries    map[string]entry
	isRunning  bool
	ctx        context.Context
	cancelFunc context.CancelFunc
}

func New() *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]entry),
		ctx:     context.Background(),
	}
}

// Add registers job under name. An empty schedule disables the job.
func (s *Scheduler) Add(name, schedule string, job Job) error {
	if schedule == "" {
		logger.L.Info().Str("job", name).Msg("Scheduler: job disabled")
		return nil
	}
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q for %s: %w", schedule, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}

	id, err := s.cron.AddFunc(schedule, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.entries[name] = entry{id: id, schedule: schedule, job: job}
	return nil
}

// Start begins running jobs and stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.ctx, s.cancelFunc = context.WithCancel(ctx)
	s.cron.Start()
	s.isRunning = true
	runCtx := s.ctx

	for _, name := range s.namesLocked() {
		e := s.entries[name]
		logger.L.Info().
			Str("job", name).
			Str("schedule", e.schedule).
			Str("description", DescribeSchedule(e.schedule)).
			Time("next_run", s.cron.Entry(e.id).Next).
			Msg("Scheduler: job scheduled")
	}
	s.mu.Unlock()

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	// Stop accepting new jobs and wait for running jobs to complete
	<-s.cron.Stop().Done()
	cancel()

	logger.L.Info().Msg("Scheduler: stopped")
}

// RunNow executes the named job synchronously.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	ctx := s.ctx
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}
	return e.job(ctx)
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the named job fires next, or nil when the scheduler
// is stopped or the job is unknown.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	if !s.isRunning || !ok {
		return nil
	}
	next := s.cron.Entry(e.id).Next
	return &next
}

// Jobs returns the registered job names in order.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.namesLocked()
}

func (s *Scheduler) namesLocked() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) run(name string, job Job) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	start := time.Now()
	if err := job(ctx); err != nil {
		logger.L.Error().Err(err).Str("job", name).Msg("Scheduler: job failed")
		return
	}
	logger.L.Debug().Str("job", name).Dur("took", time.Since(start)).Msg("Scheduler: job finished")
}
