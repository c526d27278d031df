// Package node persists Identity Trust Nodes.
package node

import (
	"context"

	"vouch/internal/trust/models"
	"vouch/pkg/domain"
)

// Store is pure I/O over trust nodes; weighting rules live in the trust
// service.
type Store interface {
	// Get returns the node for the pair, or sentinel.ErrNotFound.
	Get(ctx context.Context, identity domain.IdentityID, cohort domain.Cohort) (*models.Node, error)

	// Upsert writes the node keyed by (identity, cohort), creating or
	// replacing all derived fields atomically within the ambient transaction.
	Upsert(ctx context.Context, node *models.Node) error

	// ListByIdentity returns every cohort node for one identity.
	ListByIdentity(ctx context.Context, identity domain.IdentityID) ([]*models.Node, error)

	// ListVolatile returns nodes whose volatility strictly exceeds the
	// threshold.
	ListVolatile(ctx context.Context, threshold float64) ([]*models.Node, error)

	// Scores returns current score per identity for the requested ids,
	// summed across cohorts. Missing identities are absent from the map.
	Scores(ctx context.Context, ids []domain.IdentityID) (map[domain.IdentityID]float64, error)

	// Clear discards nodes ahead of a recompute; empty cohort means all.
	Clear(ctx context.Context, cohort domain.Cohort) error
}
