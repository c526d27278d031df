package node_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/trust/models"
	"vouch/internal/trust/store/node"
	"vouch/pkg/domain"
)

func seedNode(t *testing.T, store *node.MemoryStore, cohort domain.Cohort, volatility float64) {
	t.Helper()
	identity, err := domain.ParseIdentityID(uuid.New().String())
	require.NoError(t, err)
	require.NoError(t, store.Upsert(context.Background(), &models.Node{
		IdentityID: identity,
		Cohort:     cohort,
		Volatility: volatility,
		ComputedAt: time.Now().UTC(),
	}))
}

// The memory twin must order results the way the Postgres store does, or
// unit-tested behavior silently diverges from production reads.
func TestMemoryListVolatile_OrdersDescending(t *testing.T) {
	ctx := context.Background()
	store := node.NewMemory()
	seedNode(t, store, "gen-z", 2.0)
	seedNode(t, store, "gen-z", 8.0)
	seedNode(t, store, "millennial", 5.0)

	nodes, err := store.ListVolatile(ctx, 1.0)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, 8.0, nodes[0].Volatility)
	assert.Equal(t, 5.0, nodes[1].Volatility)
	assert.Equal(t, 2.0, nodes[2].Volatility)
}

func TestMemoryListByIdentity_OrdersByCohort(t *testing.T) {
	ctx := context.Background()
	store := node.NewMemory()
	identity, err := domain.ParseIdentityID(uuid.New().String())
	require.NoError(t, err)
	for _, cohort := range []domain.Cohort{"millennial", "boomer", "gen-z"} {
		require.NoError(t, store.Upsert(ctx, &models.Node{
			IdentityID: identity,
			Cohort:     cohort,
			ComputedAt: time.Now().UTC(),
		}))
	}

	nodes, err := store.ListByIdentity(ctx, identity)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, domain.Cohort("boomer"), nodes[0].Cohort)
	assert.Equal(t, domain.Cohort("gen-z"), nodes[1].Cohort)
	assert.Equal(t, domain.Cohort("millennial"), nodes[2].Cohort)
}
