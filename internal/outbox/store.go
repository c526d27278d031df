package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists pending outbox entries.
type Store interface {
	// Add inserts a new pending entry.
	Add(ctx context.Context, entry Entry) error

	// Due returns entries whose next attempt time is at or before now.
	Due(ctx context.Context, now time.Time) ([]Entry, error)

	// Delete removes a delivered entry.
	Delete(ctx context.Context, id uuid.UUID) error

	// Reschedule records a failed attempt: bumped attempt count, new next
	// attempt time, last error text.
	Reschedule(ctx context.Context, id uuid.UUID, attempts int, next time.Time, lastError string) error
}
