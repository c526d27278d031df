package replay

import (
	"context"

	"github.com/google/uuid"
)

// Store persists run records and enforces the single-active-run lock.
type Store interface {
	// Begin inserts a run with StatusRunning. Returns
	// sentinel.ErrReplayActive when another run already holds the lock.
	Begin(ctx context.Context, run Run) error

	// Active returns the run currently holding the lock, or
	// sentinel.ErrNotFound when none does.
	Active(ctx context.Context) (Run, error)

	// Complete marks the run finished and records how many events it
	// re-applied.
	Complete(ctx context.Context, id uuid.UUID, events int) error

	// Fail marks the run failed with the cause. The lock is released; the
	// half-applied state it leaves behind is only ever read by the next
	// run's discard phase.
	Fail(ctx context.Context, id uuid.UUID, cause string) error

	// Supersede releases a stale run's lock without completing it.
	Supersede(ctx context.Context, id uuid.UUID) error
}
