package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"balwatch/internal/models"
)

type prometheusMetrics struct {
	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	fetchesTotal       *prometheus.CounterVec
	fetchDuration      prometheus.Histogram
	cacheLookupsTotal  *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	monitorState       prometheus.Gauge
	breakerState       prometheus.Gauge
}

// NewPrometheusMetrics registers and returns the pipeline's metrics
// recorder. Registration is process-global; construct once.
func NewPrometheusMetrics() MetricsRecorderInterface {
	return &prometheusMetrics{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_runs_total",
				Help: "Total number of balance-check runs by outcome",
			},
			[]string{"status"},
		),
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "balance_run_duration_seconds",
				Help:    "Duration of completed balance-check runs",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_fetches_total",
				Help: "Total number of upstream balance fetches by outcome",
			},
			[]string{"outcome"},
		),
		fetchDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "upstream_fetch_duration_seconds",
				Help:    "Duration of upstream balance fetches",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		cacheLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "response_cache_lookups_total",
				Help: "Response cache lookups by result",
			},
			[]string{"result"},
		),
		notificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_total",
				Help: "Notifications dispatched to the gateway by outcome",
			},
			[]string{"outcome"},
		),
		monitorState: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "monitor_state",
				Help: "Balance monitor state (0=idle, 1=running)",
			},
		),
		breakerState: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "upstream_breaker_state",
				Help: "Upstream circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
		),
	}
}

func (m *prometheusMetrics) RecordRun(status models.RunStatus, duration time.Duration) {
	m.runsTotal.WithLabelValues(string(status)).Inc()
	if status == models.RunCompleted {
		m.runDuration.Observe(duration.Seconds())
	}
}

func (m *prometheusMetrics) RecordFetch(outcome string, duration time.Duration) {
	m.fetchesTotal.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}

func (m *prometheusMetrics) RecordNotification(outcome string) {
	m.notificationsTotal.WithLabelValues(outcome).Inc()
}

func (m *prometheusMetrics) SetMonitorState(state models.MonitorState) {
	m.monitorState.Set(float64(state))
}

func (m *prometheusMetrics) SetBreakerState(state models.CircuitBreakerState) {
	m.breakerState.Set(float64(state))
}
