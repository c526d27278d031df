// Package history persists the append-only trust history feed. The volatility
// tracker only ever needs the single most recent entry per
// (identity, cohort, metric), so the store exposes Latest rather than a scan.
package history

import (
	"context"

	"vouch/internal/trust/models"
	"vouch/pkg/domain"
)

type Store interface {
	// Append records one observation. Entries are immutable.
	Append(ctx context.Context, entry models.HistoryEntry) error

	// Latest returns the most recent entry for the key, or
	// sentinel.ErrNotFound when the pair has no history yet.
	Latest(ctx context.Context, identity domain.IdentityID, cohort domain.Cohort, metric string) (models.HistoryEntry, error)

	// Recent returns up to limit entries for the pair, newest first.
	Recent(ctx context.Context, identity domain.IdentityID, cohort domain.Cohort, limit int) ([]models.HistoryEntry, error)

	// Clear discards history ahead of a recompute; empty cohort means all.
	Clear(ctx context.Context, cohort domain.Cohort) error
}
