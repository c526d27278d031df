// Package processed is the idempotency ledger: the set of event ids whose
// effects have been fully applied to derived state. A marker is written in
// the same transaction as the mutation it guards, so its uniqueness
// constraint is the serialization point between concurrent consumers.
package processed

import (
	"context"

	"vouch/pkg/domain"
)

// Store records applied event ids.
type Store interface {
	// Mark records the id along with the event's actor cohort (empty when the
	// event had none), which scopes cohort-filtered recomputes. Returns
	// sentinel.ErrDuplicate when the id was already marked; the caller must
	// treat that as "already applied".
	Mark(ctx context.Context, id domain.EventID, cohort domain.Cohort) error

	// Exists reports whether the id has been applied. This is the cheap
	// pre-transaction check; Mark remains the authoritative gate.
	Exists(ctx context.Context, id domain.EventID) (bool, error)

	// Clear discards markers ahead of a recompute. An empty cohort clears
	// everything; otherwise only markers whose event's actor cohort matches.
	Clear(ctx context.Context, cohort domain.Cohort) error
}
