// Package scheduler runs a single job on a recurring schedule, one run at a time.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one scheduled unit of work. It must handle its own errors.
type Job func(ctx context.Context)

// Schedule yields the next activation strictly after a given instant.
type Schedule interface {
	Next(after time.Time) time.Time
}

// IntervalSchedule fires at a fixed period, measured from the previous slot.
type IntervalSchedule struct {
	Every time.Duration
}

func (s IntervalSchedule) Next(after time.Time) time.Time {
	return after.Add(s.Every)
}

// DailySchedule fires once a day at Hour:Minute wall-clock time in Location.
type DailySchedule struct {
	Hour     int
	Minute   int
	Location *time.Location
}

func (s DailySchedule) Next(after time.Time) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	t := after.In(loc)
	next := time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, loc)
	if !next.After(t) {
		next = time.Date(t.Year(), t.Month(), t.Day()+1, s.Hour, s.Minute, 0, 0, loc)
	}
	return next
}

// Scheduler drives a Job from one goroutine, so runs never overlap.
type Scheduler struct {
	schedule   Schedule
	job        Job
	runOnStart bool
	logger     *zap.SugaredLogger
	now        func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func New(schedule Schedule, job Job, runOnStart bool, logger *zap.SugaredLogger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Scheduler{
		schedule:   schedule,
		job:        job,
		runOnStart: runOnStart,
		logger:     logger,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Start launches the loop. It returns immediately; calling it twice is a no-op.
// The loop ends when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop cancels the loop and waits for an in-flight run to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.started = true
		close(s.done)
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-s.done
}

// Done is closed once the loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	slot := s.now()
	if s.runOnStart {
		s.runJob(ctx)
	}

	for {
		next := s.schedule.Next(slot)
		// no catch-up: a slot that passed while we were busy is skipped
		if now := s.now(); !next.After(now) {
			next = s.schedule.Next(now)
		}
		s.logger.Infow("next run scheduled", "at", next)

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Infow("scheduler stopped")
			return
		case <-timer.C:
		}

		slot = next
		s.runJob(ctx)
	}
}

func (s *Scheduler) runJob(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorw("scheduled job panicked", "panic", r)
		}
	}()
	s.job(ctx)
}
