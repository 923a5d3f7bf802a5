package services

import (
	"context"
	"time"

	"balwatch/internal/models"
)

// UpstreamClientInterface fetches account balances from the upstream
// bridge, consulting the response cache first.
type UpstreamClientInterface interface {
	// FetchAccounts returns balances for the given account ids, or the
	// full account list when ids is empty. The id set is deduplicated
	// and sorted before it reaches the wire or the cache key.
	FetchAccounts(ctx context.Context, accountIDs []string) ([]models.Account, error)
}

// NotifierInterface posts a formatted message to the notification
// gateway.
type NotifierInterface interface {
	// Send dispatches one message to the resolved destination. It
	// fails fast with a validation error when the destination is
	// empty, before any network call.
	Send(ctx context.Context, title, body string, dest models.Destination) error
}

// BalanceMonitorInterface orchestrates one polling run.
type BalanceMonitorInterface interface {
	// RunOnce performs a single fetch/diff/notify cycle. A call while
	// a run is already in flight returns a skipped result immediately.
	RunOnce(ctx context.Context) (*models.RunResult, error)

	// State reports whether a run is currently in flight.
	State() models.MonitorState
}

// CircuitBreakerInterface guards the upstream bridge: after repeated
// consecutive failures calls fail fast until the reset window elapses.
type CircuitBreakerInterface interface {
	Allow() bool
	RecordSuccess()
	RecordFailure()
	State() models.CircuitBreakerState
	Reset()
}

// MetricsRecorderInterface abstracts the operational metrics the
// pipeline emits.
type MetricsRecorderInterface interface {
	RecordRun(status models.RunStatus, duration time.Duration)
	RecordFetch(outcome string, duration time.Duration)
	RecordCacheLookup(hit bool)
	RecordNotification(outcome string)
	SetMonitorState(state models.MonitorState)
	SetBreakerState(state models.CircuitBreakerState)
}
