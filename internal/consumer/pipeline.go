// Package consumer applies domain events to derived state with exactly-once
// effect. Each event runs in one transaction: append to the log, mark the
// idempotency ledger, mutate trust state, fold the rollups. A duplicate
// delivery aborts on the marker and counts as success.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vouch/internal/event"
	eventstore "vouch/internal/event/store"
	"vouch/internal/insights"
	"vouch/internal/platform/metrics"
	"vouch/internal/processed"
	trustservice "vouch/internal/trust/service"
	"vouch/internal/window"
	"vouch/pkg/platform/sentinel"
	txrunner "vouch/pkg/platform/tx"
)

// Gate reports whether an exclusive replay currently holds the derived state.
// Live ingestion backs off while it does; the bus offset stays uncommitted so
// nothing is lost.
type Gate interface {
	Active(ctx context.Context) (bool, error)
}

type Pipeline struct {
	runner    txrunner.Runner
	events    eventstore.Store
	processed processed.Store
	trust     *trustservice.Service
	insights  *insights.Service // nil disables aggregation (cohort-scoped replay)
	window    *window.Service
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	gate      Gate
}

func NewPipeline(
	runner txrunner.Runner,
	events eventstore.Store,
	proc processed.Store,
	trust *trustservice.Service,
	agg *insights.Service,
	win *window.Service,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		runner:    runner,
		events:    events,
		processed: proc,
		trust:     trust,
		insights:  agg,
		window:    win,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("vouch/consumer"),
	}
}

// WithGate makes the pipeline defer to an exclusive replay lock.
func (p *Pipeline) WithGate(g Gate) *Pipeline {
	p.gate = g
	return p
}

// Apply processes one envelope. Returns nil for both "applied" and
// "duplicate, already applied"; only infrastructure failures propagate, and
// those roll the whole transaction back so redelivery is safe.
func (p *Pipeline) Apply(ctx context.Context, env event.Envelope) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.apply",
		trace.WithAttributes(
			attribute.String("event.id", env.ID.String()),
			attribute.String("event.type", string(env.Type)),
		))
	defer span.End()

	if p.gate != nil {
		active, err := p.gate.Active(ctx)
		if err != nil {
			return fmt.Errorf("replay gate: %w", err)
		}
		if active {
			return sentinel.ErrReplayActive
		}
	}

	// Cheap pre-check; the Mark insert inside the transaction remains the
	// authoritative gate for concurrent consumers.
	if seen, err := p.processed.Exists(ctx, env.ID); err != nil {
		return fmt.Errorf("idempotency pre-check: %w", err)
	} else if seen {
		p.countDuplicate()
		return nil
	}

	// The flag is derived from the event's own instant so that replay and
	// live ingestion weight the same event identically.
	windowActive, err := p.window.ActiveAt(ctx, env.OccurredAt)
	if err != nil {
		return fmt.Errorf("window flag: %w", err)
	}

	var mutated bool
	err = p.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := p.events.Append(ctx, env); err != nil {
			return err
		}
		if err := p.processed.Mark(ctx, env.ID, env.ActorCohort); err != nil {
			return err // ErrDuplicate aborts the transaction
		}

		var terr error
		mutated, terr = p.trust.Apply(ctx, env, windowActive)
		if terr != nil {
			return terr
		}

		if p.insights != nil {
			if err := p.insights.Aggregate(ctx, env, windowActive); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			// Lost the race to another consumer: the event is applied.
			p.countDuplicate()
			return nil
		}
		return fmt.Errorf("apply event %s: %w", env.ID.String(), err)
	}

	if env.Type.IsWindowMarker() {
		p.window.Invalidate(ctx)
	}

	if p.metrics != nil {
		if mutated {
			p.metrics.EventsProcessed.WithLabelValues(string(env.Type)).Inc()
		} else {
			p.metrics.EventsSkipped.Inc()
		}
	}
	return nil
}

func (p *Pipeline) countDuplicate() {
	if p.metrics != nil {
		p.metrics.EventsDuplicate.Inc()
	}
}
