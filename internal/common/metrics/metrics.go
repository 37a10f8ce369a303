// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat turn metrics
var (
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total number of chat turns by resolved intent",
		},
		[]string{"intent", "channel"},
	)

	ChatUnclearTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_unclear_turns_total",
			Help: "Turns that fell back to a clarifying question",
		},
	)

	ChatTurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_turn_duration_seconds",
			Help:    "End-to-end duration of one chat turn",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"channel"},
	)

	LeadsCaptured = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_leads_captured_total",
			Help: "Leads created from a phone number in chat",
		},
	)

	LeadsDuplicate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_leads_duplicate_total",
			Help: "Phone numbers skipped because a lead already exists for the session",
		},
		[]string{"source"},
	)

	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_persistence_failures_total",
			Help: "Failed store writes by operation",
		},
		[]string{"operation"},
	)

	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_websocket_connections",
			Help: "Open websocket chat connections",
		},
	)
)

// Worker metrics
var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
