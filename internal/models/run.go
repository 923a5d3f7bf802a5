package models

import (
	"time"

	"github.com/google/uuid"
)

// MonitorState is the balance monitor's run guard. Transitions are
// Idle -> Running -> Idle; a tick arriving while Running is dropped.
type MonitorState int32

const (
	MonitorIdle MonitorState = iota
	MonitorRunning
)

func (s MonitorState) String() string {
	switch s {
	case MonitorIdle:
		return "idle"
	case MonitorRunning:
		return "running"
	default:
		return "unknown"
	}
}

// RunStatus classifies the outcome of one RunOnce invocation.
type RunStatus string

const (
	// RunCompleted means the run fetched and processed accounts
	// (possibly with isolated per-account failures).
	RunCompleted RunStatus = "completed"
	// RunSkipped means another run was already in flight.
	RunSkipped RunStatus = "skipped"
	// RunFailed means the run-level fetch itself failed.
	RunFailed RunStatus = "failed"
)

// RunResult summarizes one monitor run for logs, metrics and the
// control-plane trigger endpoint.
type RunResult struct {
	ID                uuid.UUID     `json:"id"`
	Status            RunStatus     `json:"status"`
	AccountsChecked   int           `json:"accounts_checked"`
	BaselinesRecorded int           `json:"baselines_recorded"`
	ChangesDetected   int           `json:"changes_detected"`
	NotificationsSent int           `json:"notifications_sent"`
	AccountErrors     int           `json:"account_errors"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration"`
}

// CircuitBreakerState reflects the upstream guard position.
type CircuitBreakerState int

const (
	BreakerClosed CircuitBreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
