package outbox

import (
	"context"
	"log/slog"
	"time"

	"vouch/internal/bus"
	"vouch/internal/platform/metrics"
)

// Sweeper retries pending outbox entries on a fixed interval. It runs on its
// own timer and touches only the outbox table, so it never blocks event
// ingestion.
type Sweeper struct {
	store     Store
	publisher bus.Publisher
	interval  time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewSweeper(store Store, publisher bus.Publisher, interval time.Duration, logger *slog.Logger, m *metrics.Metrics) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{store: store, publisher: publisher, interval: interval, logger: logger, metrics: m}
}

// Run sweeps until the context ends.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep retries every due entry once. Exported so the recompute path and
// tests can force a pass without waiting for the ticker.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()
	due, err := s.store.Due(ctx, now)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "outbox sweep load failed", "error", err)
		}
		return
	}

	for _, entry := range due {
		if err := s.publisher.Publish(ctx, entry.Topic, entry.Key, entry.Payload); err != nil {
			attempts := entry.Attempts + 1
			next := now.Add(NextBackoff(attempts))
			if rerr := s.store.Reschedule(ctx, entry.ID, attempts, next, err.Error()); rerr != nil && s.logger != nil {
				s.logger.ErrorContext(ctx, "outbox reschedule failed", "entry_id", entry.ID, "error", rerr)
			}
			if s.metrics != nil {
				s.metrics.OutboxRetries.Inc()
			}
			continue
		}

		if err := s.store.Delete(ctx, entry.ID); err != nil {
			// The publish landed but the delete failed; the entry will be
			// retried and delivered twice. At-least-once allows that.
			if s.logger != nil {
				s.logger.WarnContext(ctx, "outbox delete after delivery failed", "entry_id", entry.ID, "error", err)
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.OutboxDelivered.Inc()
		}
	}
}
