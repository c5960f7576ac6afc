package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"property-listing/internal/cleanup"
	"property-listing/internal/config"
	"property-listing/internal/logging"
)

// Scheduler runs the daily orphan upload cleanup
type Scheduler struct {
	cron    *cron.Cron
	cleanup *cleanup.Service
	config  config.CleanupConfig

	mu        sync.Mutex
	isRunning bool
	jobActive bool
}

// NewScheduler creates a new scheduler
func NewScheduler(svc *cleanup.Service, cfg config.CleanupConfig) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		cleanup: svc,
		config:  cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Enabled {
		logging.Logger.Info("Scheduler: Daily cleanup is disabled in configuration")
		return nil
	}

	cronSpec := ParseDailyRunTime(s.config.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		logging.Logger.Info("Scheduler: Starting daily cleanup job...")
		if _, err := s.RunNow(context.Background()); err != nil {
			logging.Logger.WithError(err).Error("Scheduler: Daily cleanup failed")
		} else {
			logging.Logger.Info("Scheduler: Daily cleanup completed successfully")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.mu.Lock()
	s.isRunning = true
	s.mu.Unlock()
	logging.Logger.Infof("Scheduler: Started with daily cleanup at %s (cron: %s)", s.config.DailyRunTime, cronSpec)

	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	running := s.isRunning
	s.isRunning = false
	s.mu.Unlock()

	if running {
		<-s.cron.Stop().Done()
		logging.Logger.Info("Scheduler: Stopped")
	}
}

// ErrAlreadyRunning is returned when a cleanup run is already in progress
var ErrAlreadyRunning = errors.New("cleanup already running")

// RunNow immediately executes the cleanup job with the configured settings
func (s *Scheduler) RunNow(ctx context.Context) (*cleanup.CleanupResult, error) {
	return s.Run(ctx, s.CleanupConfig())
}

// Run executes the cleanup job with cfg. Overlapping runs are refused.
func (s *Scheduler) Run(ctx context.Context, cfg cleanup.CleanupConfig) (*cleanup.CleanupResult, error) {
	s.mu.Lock()
	if s.jobActive {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.jobActive = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.jobActive = false
		s.mu.Unlock()
	}()

	return s.cleanup.Run(ctx, cfg)
}

// CleanupConfig returns the configured cleanup settings
func (s *Scheduler) CleanupConfig() cleanup.CleanupConfig {
	return cleanup.CleanupConfig{
		MinAge:           s.config.GetMinAge(),
		MaxDeletionCount: s.config.MaxDeletionCount,
		DryRun:           s.config.DryRun,
	}
}

// ParseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func ParseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	logging.Logger.Warnf("Scheduler: Failed to parse time '%s', using default 03:00", timeStr)
	return "0 3 * * *"
}
