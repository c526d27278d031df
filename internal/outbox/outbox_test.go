package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/bus"
	"vouch/internal/event"
	"vouch/pkg/domain"
)

func lifecycleEvent() event.Envelope {
	return event.Envelope{
		ID:         domain.NewEventID(),
		Type:       event.TypeTrustRecomputed,
		OccurredAt: time.Now().UTC(),
		Payload:    []byte(`{"scope":"all","dry_run":false}`),
	}
}

func TestEmit_SyncPublishSkipsOutbox(t *testing.T) {
	ctx := context.Background()
	publisher := bus.NewMemoryPublisher()
	store := NewMemory()
	emitter := NewEmitter(publisher, store, "vouch.lifecycle", nil)

	require.NoError(t, emitter.Emit(ctx, lifecycleEvent()))

	assert.Len(t, publisher.Published(), 1)
	assert.Zero(t, store.Len())
}

func TestEmit_FailedPublishQueues(t *testing.T) {
	ctx := context.Background()
	publisher := bus.NewMemoryPublisher()
	publisher.FailNext(1)
	store := NewMemory()
	emitter := NewEmitter(publisher, store, "vouch.lifecycle", nil)

	env := lifecycleEvent()
	require.NoError(t, emitter.Emit(ctx, env))

	assert.Empty(t, publisher.Published())
	require.Equal(t, 1, store.Len())

	due, err := store.Due(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, env.ID.String(), due[0].Key)
}

// TestSweep_RetryDeliversOnce is the at-least-once contract: a failed emit is
// delivered by a later sweep, exactly one copy lands once delivery succeeds,
// and the entry disappears.
func TestSweep_RetryDeliversOnce(t *testing.T) {
	ctx := context.Background()
	publisher := bus.NewMemoryPublisher()
	publisher.FailNext(1)
	store := NewMemory()
	emitter := NewEmitter(publisher, store, "vouch.lifecycle", nil)
	sweeper := NewSweeper(store, publisher, time.Minute, nil, nil)

	require.NoError(t, emitter.Emit(ctx, lifecycleEvent()))
	require.Equal(t, 1, store.Len())

	sweeper.Sweep(ctx)

	assert.Len(t, publisher.Published(), 1, "sweep delivers the queued event")
	assert.Zero(t, store.Len(), "delivered entry is removed")

	sweeper.Sweep(ctx)
	assert.Len(t, publisher.Published(), 1, "subsequent sweeps do not redeliver")
}

func TestSweep_FailureBacksOff(t *testing.T) {
	ctx := context.Background()
	publisher := bus.NewMemoryPublisher()
	publisher.FailNext(2) // emit fails, then the first sweep fails too
	store := NewMemory()
	emitter := NewEmitter(publisher, store, "vouch.lifecycle", nil)
	sweeper := NewSweeper(store, publisher, time.Minute, nil, nil)

	require.NoError(t, emitter.Emit(ctx, lifecycleEvent()))
	sweeper.Sweep(ctx)

	require.Equal(t, 1, store.Len())
	due, err := store.Due(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, due, "failed entry is pushed into the future")

	due, err = store.Due(ctx, time.Now().UTC().Add(2*backoffBase))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Attempts)
	assert.NotEmpty(t, due[0].LastError)
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, backoffBase, NextBackoff(1))
	assert.Equal(t, 2*backoffBase, NextBackoff(2))
	assert.Equal(t, backoffCap, NextBackoff(20), "backoff is capped")
}
