package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vouch/internal/consumer"
	"vouch/internal/event"
	eventstore "vouch/internal/event/store"
	"vouch/internal/insights"
	"vouch/internal/outbox"
	"vouch/internal/platform/metrics"
	"vouch/internal/processed"
	trustservice "vouch/internal/trust/service"
	historystore "vouch/internal/trust/store/history"
	nodestore "vouch/internal/trust/store/node"
	"vouch/internal/window"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txrunner "vouch/pkg/platform/tx"
)

// defaultStaleAfter is how long a running record may go unfinished before a
// new run treats it as a crashed process and supersedes it.
const defaultStaleAfter = 15 * time.Minute

// Report is what the recompute endpoint returns to the caller.
type Report struct {
	RunID          uuid.UUID
	Scope          string
	DryRun         bool
	EventsReplayed int
	AlgoVersion    string
	EmittedEventID domain.EventID
}

type Engine struct {
	runs       Store
	runner     txrunner.Runner
	events     eventstore.Store
	nodes      nodestore.Store
	history    historystore.Store
	processed  processed.Store
	trust      *trustservice.Service
	agg        *insights.Service
	emitter    *outbox.Emitter
	metrics    *metrics.Metrics
	logger     *slog.Logger
	staleAfter time.Duration
}

func NewEngine(
	runs Store,
	runner txrunner.Runner,
	events eventstore.Store,
	nodes nodestore.Store,
	hist historystore.Store,
	proc processed.Store,
	trust *trustservice.Service,
	agg *insights.Service,
	emitter *outbox.Emitter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		runs:       runs,
		runner:     runner,
		events:     events,
		nodes:      nodes,
		history:    hist,
		processed:  proc,
		trust:      trust,
		agg:        agg,
		emitter:    emitter,
		metrics:    m,
		logger:     logger,
		staleAfter: defaultStaleAfter,
	}
}

// Run executes one recompute. Phase one discards derived state for the scope
// (skipped entirely on dry-run, which rebuilds into scratch stores instead);
// phase two streams the full log in occurrence order through the same
// pipeline live ingestion uses. The run record is the lock and the recovery
// marker: a crash leaves it in StatusRunning, and the next run supersedes it
// once it has gone stale.
func (e *Engine) Run(ctx context.Context, scope domain.Cohort, dryRun bool) (Report, error) {
	run := Run{
		ID:        uuid.New(),
		Scope:     scope,
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}
	if err := e.acquire(ctx, run); err != nil {
		return Report{}, err
	}

	applied, err := e.replay(ctx, scope, dryRun)
	if err != nil {
		if failErr := e.runs.Fail(ctx, run.ID, err.Error()); failErr != nil && e.logger != nil {
			e.logger.ErrorContext(ctx, "recording replay failure", "run_id", run.ID, "error", failErr)
		}
		return Report{}, fmt.Errorf("replay run %s: %w", run.ID, err)
	}

	if err := e.runs.Complete(ctx, run.ID, applied); err != nil {
		return Report{}, fmt.Errorf("complete replay run: %w", err)
	}
	if e.metrics != nil {
		e.metrics.ReplayRuns.Inc()
	}

	emitted, err := e.emitRecomputed(ctx, run)
	if err != nil {
		return Report{}, err
	}

	if e.logger != nil {
		e.logger.InfoContext(ctx, "replay completed",
			"run_id", run.ID,
			"scope", run.ScopeLabel(),
			"dry_run", dryRun,
			"events_replayed", applied,
		)
	}
	return Report{
		RunID:          run.ID,
		Scope:          run.ScopeLabel(),
		DryRun:         dryRun,
		EventsReplayed: applied,
		AlgoVersion:    e.trust.Version(),
		EmittedEventID: emitted,
	}, nil
}

// acquire takes the exclusive lock, superseding a stale holder from a
// crashed process. A fresh holder wins: the caller gets ErrReplayActive.
func (e *Engine) acquire(ctx context.Context, run Run) error {
	active, err := e.runs.Active(ctx)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		// lock is free
	case err != nil:
		return fmt.Errorf("check active replay: %w", err)
	case time.Since(active.StartedAt) < e.staleAfter:
		return sentinel.ErrReplayActive
	default:
		if err := e.runs.Supersede(ctx, active.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("supersede stale replay: %w", err)
		}
		if e.logger != nil {
			e.logger.WarnContext(ctx, "superseded stale replay run",
				"stale_run_id", active.ID, "started_at", active.StartedAt)
		}
	}
	return e.runs.Begin(ctx, run)
}

func (e *Engine) replay(ctx context.Context, scope domain.Cohort, dryRun bool) (int, error) {
	pipeline, err := e.buildPipeline(ctx, scope, dryRun)
	if err != nil {
		return 0, err
	}

	// The full log streams regardless of scope: a cross-cohort endorsement
	// lands on the target's cohort, so filtering the log by actor cohort
	// would miss events the scoped nodes depend on. The scoped mutator
	// drops out-of-scope targets instead.
	log, err := e.events.ListAscending(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}

	for i, env := range log {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := pipeline.Apply(ctx, env); err != nil {
			return i, fmt.Errorf("apply event %s: %w", env.ID.String(), err)
		}
	}
	return len(log), nil
}

// buildPipeline assembles the ingestion pipeline the replay streams through.
// Dry-run swaps in scratch memory stores and a passthrough runner so the
// real derived state is never touched; otherwise the discard phase runs here,
// inside the lock, before the first event is re-applied.
func (e *Engine) buildPipeline(ctx context.Context, scope domain.Cohort, dryRun bool) (*consumer.Pipeline, error) {
	trust := e.trust
	if scope != "" {
		trust = trust.Scoped(scope)
	}

	// The window flag re-derives from the log for every event; no cache, so
	// a marker cached mid-run can never skew a historical event's weight.
	win := window.New(e.events, nil, e.logger)

	if dryRun {
		trust = trust.WithStores(nodestore.NewMemory(), historystore.NewMemory())
		return consumer.NewPipeline(
			txrunner.PassthroughRunner{},
			eventstore.NewMemory(),
			processed.NewMemory(),
			trust,
			nil,
			win,
			nil,
			e.logger,
		), nil
	}

	if err := e.discard(ctx, scope); err != nil {
		return nil, err
	}

	agg := e.agg
	if scope != "" {
		// Rollups are cohort-blind (the window rollup in particular), so a
		// scoped run leaves them alone; out-of-scope events re-marked below
		// must not increment them a second time.
		agg = nil
	}
	return consumer.NewPipeline(
		e.runner,
		e.events,
		e.processed,
		trust,
		agg,
		win,
		e.metrics,
		e.logger,
	), nil
}

// discard is phase one: drop every derived row the replay will rebuild.
// Markers are always cleared in full — the scoped mutator needs to revisit
// out-of-scope events too, and replay holds ingestion off via the gate, so
// nothing races the rebuild.
func (e *Engine) discard(ctx context.Context, scope domain.Cohort) error {
	return e.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := e.nodes.Clear(ctx, scope); err != nil {
			return fmt.Errorf("clear nodes: %w", err)
		}
		if err := e.history.Clear(ctx, scope); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		if err := e.processed.Clear(ctx, ""); err != nil {
			return fmt.Errorf("clear markers: %w", err)
		}
		if scope == "" && e.agg != nil {
			if err := e.agg.Reset(ctx); err != nil {
				return fmt.Errorf("clear rollups: %w", err)
			}
		}
		return nil
	})
}

func (e *Engine) emitRecomputed(ctx context.Context, run Run) (domain.EventID, error) {
	payload, err := json.Marshal(event.RecomputedPayload{
		Scope:  run.ScopeLabel(),
		DryRun: run.DryRun,
	})
	if err != nil {
		return domain.EventID{}, fmt.Errorf("encode recomputed payload: %w", err)
	}
	env := event.Envelope{
		ID:            domain.NewEventID(),
		Type:          event.TypeTrustRecomputed,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: run.ID.String(),
		Payload:       payload,
	}
	if err := e.emitter.Emit(ctx, env); err != nil {
		return domain.EventID{}, fmt.Errorf("emit recomputed event: %w", err)
	}
	return env.ID, nil
}

// Gate adapts the run store to the consumer's replay gate. A stale holder
// does not block ingestion: a crashed replay must never wedge the consumer
// until an operator intervenes.
type Gate struct {
	runs       Store
	staleAfter time.Duration
}

func NewGate(runs Store) *Gate {
	return &Gate{runs: runs, staleAfter: defaultStaleAfter}
}

func (g *Gate) Active(ctx context.Context) (bool, error) {
	run, err := g.runs.Active(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("replay gate: %w", err)
	}
	return time.Since(run.StartedAt) < g.staleAfter, nil
}
