package insights

import (
	"context"
	"time"
)

// Store persists rollup rows. All increments are upserts: absent buckets are
// created with the increment as their initial value.
type Store interface {
	IncrActivity(ctx context.Context, day time.Time, topic, cohort string) error
	IncrVolatility(ctx context.Context, day time.Time, topic string, weight float64) error
	IncrWindow(ctx context.Context, hour time.Time, active bool) error

	ActivitySince(ctx context.Context, since time.Time) ([]ActivityRow, error)
	VolatilitySince(ctx context.Context, since time.Time) ([]VolatilityRow, error)
	WindowSince(ctx context.Context, since time.Time) ([]WindowRow, error)

	// Clear wipes all rollups; only a full recompute may call it.
	Clear(ctx context.Context) error
}
