package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"balwatch/internal/middleware"
	"balwatch/internal/models"
	"balwatch/internal/repositories"
)

// balanceTolerance absorbs floating-point and string-coercion noise:
// deltas below it are treated as "unchanged" and never notify. Named
// deliberately; exact equality would re-alert on reformatted balances.
const balanceTolerance = 0.0001

// balanceMonitor implements BalanceMonitorInterface. It owns the
// Idle/Running guard: ticks arriving mid-run are dropped, not queued,
// so a slow upstream call cannot cause pile-up.
type balanceMonitor struct {
	configRepo repositories.ConfigRepositoryInterface
	stateRepo  repositories.StateRepositoryInterface
	upstream   UpstreamClientInterface
	notifier   NotifierInterface
	metrics    MetricsRecorderInterface
	logger     *slog.Logger

	state atomic.Int32 // models.MonitorState
}

// NewBalanceMonitor creates the run orchestrator.
func NewBalanceMonitor(
	configRepo repositories.ConfigRepositoryInterface,
	stateRepo repositories.StateRepositoryInterface,
	upstream UpstreamClientInterface,
	notifier NotifierInterface,
	metrics MetricsRecorderInterface,
	logger *slog.Logger,
) BalanceMonitorInterface {
	return &balanceMonitor{
		configRepo: configRepo,
		stateRepo:  stateRepo,
		upstream:   upstream,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
	}
}

// State reports whether a run is in flight.
func (m *balanceMonitor) State() models.MonitorState {
	return models.MonitorState(m.state.Load())
}

// RunOnce performs a single fetch/diff/notify cycle. Per-account
// failures are isolated; a run-level fetch failure propagates to the
// caller (the scheduler logs it and waits for the next tick).
func (m *balanceMonitor) RunOnce(ctx context.Context) (*models.RunResult, error) {
	result := &models.RunResult{
		ID:        uuid.New(),
		StartedAt: time.Now(),
	}

	if !m.state.CompareAndSwap(int32(models.MonitorIdle), int32(models.MonitorRunning)) {
		result.Status = models.RunSkipped
		m.metrics.RecordRun(models.RunSkipped, 0)
		m.logger.Info("balance check already running, tick dropped", "run_id", result.ID)
		return result, nil
	}
	m.metrics.SetMonitorState(models.MonitorRunning)
	defer func() {
		m.state.Store(int32(models.MonitorIdle))
		m.metrics.SetMonitorState(models.MonitorIdle)
	}()

	log := m.logger.With("run_id", result.ID)
	// A run triggered through the control-plane carries the request's
	// trace id; scheduled ticks have none.
	if traceID := middleware.TraceIDFromContext(ctx); traceID != "" {
		log = log.With("trace_id", traceID)
	}

	cfg, err := m.configRepo.Get()
	if err != nil {
		result.Status = models.RunFailed
		m.metrics.RecordRun(models.RunFailed, time.Since(result.StartedAt))
		return result, fmt.Errorf("failed to read config: %w", err)
	}

	// Fetch the full list when any target uses the wildcard or no
	// target names an explicit id; otherwise bound upstream load to
	// the union of watched ids.
	watchedIDs, wildcard := cfg.WatchedAccountIDs()
	var fetchIDs []string
	if !wildcard && len(watchedIDs) > 0 {
		fetchIDs = watchedIDs
	}

	accounts, err := m.upstream.FetchAccounts(ctx, fetchIDs)
	if err != nil {
		result.Status = models.RunFailed
		result.Duration = time.Since(result.StartedAt)
		m.metrics.RecordRun(models.RunFailed, result.Duration)
		return result, fmt.Errorf("balance fetch failed: %w", err)
	}

	if len(accounts) == 0 {
		log.Info("upstream returned no accounts, nothing to do")
		result.Status = models.RunCompleted
		result.Duration = time.Since(result.StartedAt)
		m.metrics.RecordRun(models.RunCompleted, result.Duration)
		return result, nil
	}

	for i := range accounts {
		account := &accounts[i]
		if err := m.processAccount(ctx, log, cfg, account, result); err != nil {
			// One bad account must not abort the rest of the run.
			result.AccountErrors++
			log.Error("failed to process account", "account_id", account.ID, "error", err)
		}
	}

	result.Status = models.RunCompleted
	result.Duration = time.Since(result.StartedAt)
	m.metrics.RecordRun(models.RunCompleted, result.Duration)
	log.Info("balance check completed",
		"accounts_checked", result.AccountsChecked,
		"baselines", result.BaselinesRecorded,
		"changes", result.ChangesDetected,
		"notifications", result.NotificationsSent,
		"account_errors", result.AccountErrors,
	)
	return result, nil
}

func (m *balanceMonitor) processAccount(
	ctx context.Context,
	log *slog.Logger,
	cfg *models.ConfigDocument,
	account *models.Account,
	result *models.RunResult,
) error {
	if account.ID == "" {
		log.Warn("skipping account without id", "name", account.DisplayName())
		return nil
	}

	// Resolve targets before parsing anything: unwatched accounts are
	// skipped without balance parsing or logging.
	var matched []models.NotificationTarget
	for _, t := range cfg.Targets {
		if t.Watches(account.ID) {
			matched = append(matched, t)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	result.AccountsChecked++

	current, ok := ResolveBalance(account)
	if !ok {
		log.Warn("skipping account with non-numeric balance",
			"account_id", account.ID,
			"balance", account.Balance,
			"available_balance", account.AvailableBalance,
		)
		return nil
	}
	currency := account.CurrencyOrDefault()

	previous, found := m.stateRepo.GetLastBalance(account.ID)
	if !found {
		// First observation: record the baseline, never alert. This
		// suppresses a false "changed" notification on first run or
		// after state loss.
		if err := m.stateRepo.SetLastBalance(account.ID, current); err != nil {
			return fmt.Errorf("failed to record baseline: %w", err)
		}
		result.BaselinesRecorded++
		log.Info("recorded baseline balance", "account_id", account.ID, "balance", FormatAmount(current, currency))
		return nil
	}

	delta := current - previous
	if math.Abs(delta) < balanceTolerance {
		if previous != current {
			// Same balance in a different representation: refresh the
			// stored value silently.
			if err := m.stateRepo.SetLastBalance(account.ID, current); err != nil {
				return fmt.Errorf("failed to refresh stored balance: %w", err)
			}
		}
		return nil
	}

	result.ChangesDetected++
	title := account.DisplayName()
	body := fmt.Sprintf("%s %s &mdash; balance is now <b>%s</b>",
		DirectionIndicator(delta),
		FormatSignedAmount(delta, currency),
		FormatAmount(current, currency),
	)

	var failedTargets int
	for _, t := range matched {
		if err := m.notifier.Send(ctx, title, body, t.Destination()); err != nil {
			failedTargets++
			log.Error("failed to notify target",
				"account_id", account.ID,
				"target", t.Name,
				"error", err,
			)
			continue
		}
		result.NotificationsSent++
	}

	if failedTargets > 0 {
		// Leave the stored balance untouched so the next run
		// re-detects the change and retries delivery.
		return fmt.Errorf("failed to notify %d of %d targets for account %s", failedTargets, len(matched), account.ID)
	}

	// Persist exactly once, after every matched target was notified.
	if err := m.stateRepo.SetLastBalance(account.ID, current); err != nil {
		return fmt.Errorf("failed to persist new balance: %w", err)
	}
	log.Info("balance change detected",
		"account_id", account.ID,
		"previous", FormatAmount(previous, currency),
		"current", FormatAmount(current, currency),
		"delta", FormatSignedAmount(delta, currency),
		"targets", len(matched),
	)
	return nil
}
