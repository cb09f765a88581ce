// Package scheduler runs background maintenance for retained reports and the audit trail.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/learning-agent/internal/logger"
	"github.com/yourusername/learning-agent/internal/metrics"
)

// Job names used in logs and metrics
const (
	JobCacheSweep     = "cache_sweep"
	JobRetentionPrune = "retention_prune"
)

// Sweeper drops expired reports and returns how many remain
type Sweeper interface {
	Sweep() int
}

// Pruner removes audit rows created before a cutoff
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler manages scheduled maintenance jobs
type Scheduler struct {
	cron            *cron.Cron
	logger          *logrus.Entry
	audit           *logger.AuditLogger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          map[string]cron.EntryID
	gracefulTimeout time.Duration
	now             func() time.Time
}

// NewScheduler creates a new scheduler
func NewScheduler(log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		logger:          log.WithField("component", "scheduler"),
		audit:           logger.NewAuditLogger(log),
		jobIDs:          make(map[string]cron.EntryID),
		gracefulTimeout: 30 * time.Second,
		now:             time.Now,
	}
}

// ScheduleCacheSweep schedules removal of expired reports
func (s *Scheduler) ScheduleCacheSweep(spec string, store Sweeper) error {
	return s.add(JobCacheSweep, spec, func() {
		s.RunCacheSweep(store)
	})
}

// ScheduleRetentionPrune schedules deletion of audit rows older than retentionDays
func (s *Scheduler) ScheduleRetentionPrune(spec string, pruner Pruner, retentionDays int) error {
	if retentionDays <= 0 {
		return fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}
	return s.add(JobRetentionPrune, spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		_, _ = s.RunRetentionPrune(ctx, pruner, retentionDays)
	})
}

// RunCacheSweep executes one report sweep
func (s *Scheduler) RunCacheSweep(store Sweeper) int {
	remaining := store.Sweep()
	metrics.RecordSchedulerJob(JobCacheSweep, "success")
	s.logger.WithField("remaining", remaining).Debug("Report cache swept")
	return remaining
}

// RunRetentionPrune executes one audit prune
func (s *Scheduler) RunRetentionPrune(ctx context.Context, pruner Pruner, retentionDays int) (int64, error) {
	cutoff := s.now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	removed, err := pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		metrics.RecordSchedulerJob(JobRetentionPrune, "failure")
		s.logger.WithError(err).Error("Audit retention prune failed")
		return 0, err
	}

	metrics.RecordSchedulerJob(JobRetentionPrune, "success")
	s.audit.LogRetentionPrune(removed, cutoff)
	return removed, nil
}

func (s *Scheduler) add(name, spec string, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if _, exists := s.jobIDs[name]; exists {
		return fmt.Errorf("job %s already scheduled", name)
	}

	entryID, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", name, err)
	}

	s.jobIDs[name] = entryID
	s.logger.WithFields(logrus.Fields{
		"job":  name,
		"spec": spec,
	}).Info("Scheduled maintenance job")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
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
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop waits for running jobs up to the graceful timeout, then stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.gracefulTimeout)
	defer cancel()

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop timed out: %w", ctx.Err())
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}
	return nextRun
}

// Jobs returns the names of scheduled jobs
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobIDs))
	for name := range s.jobIDs {
		names = append(names, name)
	}
	return names
}
