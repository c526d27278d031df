// Package store persists the append-only event log. The log is the replay
// source of truth: rows are inserted once and never mutated or deleted.
package store

import (
	"context"
	"time"

	"vouch/internal/event"
	"vouch/pkg/domain"
)

// Store is the append-only event log.
type Store interface {
	// Append inserts the envelope, ignoring duplicates on the event id so a
	// redelivered event before its processed marker exists is harmless.
	Append(ctx context.Context, env event.Envelope) error

	// ListAscending returns stored events ordered by occurrence time (event id
	// as tiebreaker). An empty cohort returns everything; otherwise only
	// events whose actor cohort matches.
	ListAscending(ctx context.Context, cohort domain.Cohort) ([]event.Envelope, error)

	// LatestWindowMarker returns the most recent window.started/window.ended
	// envelope occurring at or before asOf, or sentinel.ErrNotFound when no
	// such marker exists. The global-event active flag is derived from this,
	// never from memory alone; the asOf parameter keeps replay deterministic.
	LatestWindowMarker(ctx context.Context, asOf time.Time) (event.Envelope, error)

	// Count returns the number of stored events, scoped by cohort like
	// ListAscending.
	Count(ctx context.Context, cohort domain.Cohort) (int, error)
}
