package insights

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/event"
	"vouch/pkg/domain"
)

func qualifying(typ event.Type, cohort string, topic string, at time.Time) event.Envelope {
	payload := []byte(`{"topic":"` + topic + `"}`)
	if typ == event.TypeEndorsementGiven {
		payload = []byte(`{"target_id":"ignored","target_cohort":"ignored","topic":"` + topic + `"}`)
	}
	return event.Envelope{
		ID:          domain.NewEventID(),
		Type:        typ,
		ActorCohort: domain.Cohort(cohort),
		OccurredAt:  at,
		Payload:     payload,
	}
}

func TestAggregate_Buckets(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	svc := NewService(store, 1, nil)

	base := time.Date(2026, 7, 4, 14, 20, 0, 0, time.UTC)

	require.NoError(t, svc.Aggregate(ctx, qualifying(event.TypePostCreated, "gen-z", "cooking", base), false))
	require.NoError(t, svc.Aggregate(ctx, qualifying(event.TypeReplyCreated, "gen-z", "cooking", base.Add(time.Minute)), false))
	require.NoError(t, svc.Aggregate(ctx, qualifying(event.TypeEndorsementGiven, "boomer", "cooking", base.Add(2*time.Hour)), true))

	activity, err := store.ActivitySince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, activity, 2, "one row per (day, topic, cohort)")

	vol, err := store.VolatilitySince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, vol, 1)
	assert.InDelta(t, WeightPost+WeightReply+WeightEndorsement, vol[0].Weight, 1e-9)
	assert.EqualValues(t, 3, vol[0].Count)

	window, err := store.WindowSince(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, window, 2, "separate buckets for active and inactive hours")
}

func TestAggregate_Ignores(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	svc := NewService(store, 1, nil)
	at := time.Date(2026, 7, 4, 9, 0, 0, 0, time.UTC)

	t.Run("non-qualifying type", func(t *testing.T) {
		require.NoError(t, svc.Aggregate(ctx, qualifying(event.TypeSafetyEnforced, "gen-z", "x", at), false))
	})
	t.Run("missing cohort", func(t *testing.T) {
		require.NoError(t, svc.Aggregate(ctx, qualifying(event.TypePostCreated, "", "x", at), false))
	})

	rows, err := store.ActivitySince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// TestKFloor engineers a bucket with count k-1 and asserts it never surfaces,
// regardless of the requested window or override.
func TestKFloor(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	const k = 5
	svc := NewService(store, k, nil)

	now := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)

	// "quilting" accumulates k-1 observations; "cooking" accumulates k.
	for i := 0; i < k-1; i++ {
		require.NoError(t, svc.Aggregate(ctx, qualifying(event.TypePostCreated, "boomer", "quilting", now), false))
	}
	for i := 0; i < k; i++ {
		require.NoError(t, svc.Aggregate(ctx, qualifying(event.TypePostCreated, "boomer", "cooking", now), false))
	}

	for _, windowDays := range []int{1, 7, 365} {
		rows, err := svc.Divergence(ctx, now, windowDays, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "cooking", rows[0].Topic)
	}

	t.Run("override cannot lower the floor", func(t *testing.T) {
		rows, err := svc.Divergence(ctx, now, 7, 1)
		require.NoError(t, err)
		require.Len(t, rows, 1, "requesting min_k=1 must not reveal the k-1 bucket")
	})

	t.Run("override can raise it", func(t *testing.T) {
		rows, err := svc.Divergence(ctx, now, 7, k+1)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("heatmap applies the same floor", func(t *testing.T) {
		cells, err := svc.Heatmap(ctx, now, 7, 0)
		require.NoError(t, err)
		require.Len(t, cells, 1)
		assert.Equal(t, "cooking", cells[0].Topic)
	})

	t.Run("volatility gates on observation count", func(t *testing.T) {
		rows, err := svc.TopicVolatility(ctx, now, 7, 0)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "cooking", rows[0].Topic)
	})

	t.Run("window impact gates too", func(t *testing.T) {
		rows, err := svc.WindowImpact(ctx, now, 24, 0)
		require.NoError(t, err)
		// Both topics share the hour bucket: 2k-1 observations total.
		require.Len(t, rows, 1)
		assert.EqualValues(t, 2*k-1, rows[0].Count)
	})
}
