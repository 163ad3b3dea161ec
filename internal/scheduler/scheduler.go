// Package scheduler triggers refresh cycles at fixed daily times.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher runs one refresh cycle
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ErrSkipped is matched against refresher errors that only mean a cycle was
// already running
var ErrSkipped = errors.New("refresh skipped")

// Scheduler manages the daily refresh jobs
type Scheduler struct {
	cron            *cron.Cron
	refresher       Refresher
	logger          *logrus.Entry
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	skipErr         error
}

// Option customizes a Scheduler
type Option func(*Scheduler)

// WithJobTimeout bounds a single scheduled refresh
func WithJobTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.jobTimeout = d }
}

// WithSkipError sets the error a refresher returns when a cycle is in flight
func WithSkipError(err error) Option {
	return func(s *Scheduler) { s.skipErr = err }
}

// NewScheduler creates a new scheduler evaluating specs in loc
func NewScheduler(refresher Refresher, loc *time.Location, logger *logrus.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if loc == nil {
		loc = time.Local
	}
	entry := logger.WithField("component", "scheduler")
	cronLogger := cron.PrintfLogger(entry)

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		refresher:       refresher,
		logger:          entry,
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      10 * time.Minute,
		gracefulTimeout: 30 * time.Second,
		skipErr:         ErrSkipped,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleDaily adds one refresh job per standard cron spec
func (s *Scheduler) ScheduleDaily(specs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	for _, spec := range specs {
		spec := spec
		entryID, err := s.cron.AddFunc(spec, func() { s.RunNow("cron:" + spec) })
		if err != nil {
			return fmt.Errorf("failed to add job %q: %w", spec, err)
		}
		s.jobIDs = append(s.jobIDs, entryID)
		s.logger.WithField("spec", spec).Info("Scheduled daily refresh")
	}

	return nil
}

// RunNow runs one refresh synchronously and logs the outcome
func (s *Scheduler) RunNow(trigger string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	entry := s.logger.WithField("trigger", trigger)
	entry.Info("Starting scheduled refresh")

	if err := s.refresher.Refresh(ctx); err != nil {
		if errors.Is(err, s.skipErr) {
			entry.Warn("Refresh already running, trigger skipped")
			return
		}
		entry.WithError(err).Error("Scheduled refresh failed")
		return
	}
	entry.Info("Scheduled refresh completed")
}

// Start starts the scheduler. With runOnStart an immediate refresh is
// launched in the background.
func (s *Scheduler) Start(runOnStart bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Infof("Scheduler started with %d jobs", len(s.jobIDs))

	if runOnStart {
		go s.RunNow("startup")
	}

	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Timed out waiting for running refresh")
	}
	s.isRunning = false
	s.logger.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled refresh
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}
