package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"balwatch/internal/repositories"
	"balwatch/internal/services"
)

// ValidateSchedule checks a cron expression without starting anything.
func ValidateSchedule(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return nil
}

// Scheduler drives the balance monitor from a cron expression stored
// in the config document. Each tick triggers RunOnce; the monitor's
// own guard drops ticks that arrive mid-run. After every tick the
// scheduler re-reads the config and reschedules itself if the
// expression changed, so edits through the control-plane take effect
// without a restart.
type Scheduler struct {
	monitor    services.BalanceMonitorInterface
	configRepo repositories.ConfigRepositoryInterface
	logger     *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	expr    string
}

// New creates a stopped scheduler.
func New(
	monitor services.BalanceMonitorInterface,
	configRepo repositories.ConfigRepositoryInterface,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		monitor:    monitor,
		configRepo: configRepo,
		logger:     logger,
		cron:       cron.New(),
	}
}

// Start validates the expression and begins ticking. An invalid
// expression is a configuration error and nothing starts.
func (s *Scheduler) Start(expr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.schedule(expr); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "schedule", expr)
	return nil
}

// schedule swaps the active cron entry. Caller holds the mutex.
func (s *Scheduler) schedule(expr string) error {
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	entryID, err := s.cron.AddFunc(expr, s.tick)
	if err != nil {
		return fmt.Errorf("failed to register schedule %q: %w", expr, err)
	}
	s.entryID = entryID
	s.expr = expr
	return nil
}

func (s *Scheduler) tick() {
	result, err := s.monitor.RunOnce(context.Background())
	if err != nil {
		// No in-process retry: log and wait for the next tick.
		s.logger.Error("scheduled balance check failed", "error", err)
	} else {
		s.logger.Debug("scheduled balance check finished", "run_id", result.ID, "status", result.Status)
	}

	s.reloadSchedule()
}

// reloadSchedule picks up schedule edits made through the
// control-plane since the last tick.
func (s *Scheduler) reloadSchedule() {
	cfg, err := s.configRepo.Get()
	if err != nil {
		s.logger.Warn("failed to re-read config after tick", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.Schedule == s.expr {
		return
	}
	if err := s.schedule(cfg.Schedule); err != nil {
		// Keep the old schedule rather than stop polling entirely.
		s.logger.Error("ignoring invalid schedule from config", "schedule", cfg.Schedule, "error", err)
		return
	}
	s.logger.Info("schedule updated", "schedule", cfg.Schedule)
}

// Stop halts ticking and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
