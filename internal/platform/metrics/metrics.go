package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	EventsProcessed *prometheus.CounterVec
	EventsDuplicate prometheus.Counter
	EventsSkipped   prometheus.Counter
	OutboxDelivered prometheus.Counter
	OutboxRetries   prometheus.Counter
	ReplayRuns      prometheus.Counter
	InsightRowsHeld prometheus.Counter
	RequestLatency  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_events_processed_total",
			Help: "Domain events fully applied to derived state, by event type",
		}, []string{"event_type"}),
		EventsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_events_duplicate_total",
			Help: "Redelivered events discarded by the idempotency ledger",
		}),
		EventsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_events_skipped_total",
			Help: "Events stored for audit but skipped for state mutation",
		}),
		OutboxDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_outbox_delivered_total",
			Help: "Outbox entries successfully published to the bus",
		}),
		OutboxRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_outbox_retries_total",
			Help: "Outbox publish attempts that failed and were rescheduled",
		}),
		ReplayRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_replay_runs_total",
			Help: "Recompute runs started",
		}),
		InsightRowsHeld: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vouch_insight_rows_suppressed_total",
			Help: "Rollup rows withheld from insight responses by the k-anonymity floor",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vouch_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}
