package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

func TestDecode(t *testing.T) {
	actor := uuid.New().String()

	t.Run("full envelope round-trips", func(t *testing.T) {
		raw := []byte(`{
			"event_id": "` + uuid.New().String() + `",
			"event_type": "endorsement.given",
			"actor_id": "` + actor + `",
			"actor_cohort": "gen-z",
			"occurred_at": "2026-03-01T12:00:00Z",
			"correlation_id": "req-42",
			"payload": {"target_id": "` + actor + `", "target_cohort": "boomer"}
		}`)

		env, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, TypeEndorsementGiven, env.Type)
		assert.True(t, env.HasActor())
		assert.Equal(t, "req-42", env.CorrelationID)
		assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), env.OccurredAt)

		p, err := env.DecodeEndorsement()
		require.NoError(t, err)
		assert.Equal(t, "boomer", p.TargetCohort)
	})

	t.Run("missing actor is not an error", func(t *testing.T) {
		raw := []byte(`{
			"event_id": "` + uuid.New().String() + `",
			"event_type": "post.created",
			"occurred_at": "2026-03-01T12:00:00Z"
		}`)

		env, err := Decode(raw)
		require.NoError(t, err)
		assert.False(t, env.HasActor())
	})

	t.Run("missing event_id is a decode error", func(t *testing.T) {
		raw := []byte(`{"event_type": "post.created", "occurred_at": "2026-03-01T12:00:00Z"}`)
		_, err := Decode(raw)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("missing occurred_at is a decode error", func(t *testing.T) {
		raw := []byte(`{"event_id": "` + uuid.New().String() + `", "event_type": "post.created"}`)
		_, err := Decode(raw)
		require.Error(t, err)
	})

	t.Run("unrecognized type decodes fine", func(t *testing.T) {
		raw := []byte(`{
			"event_id": "` + uuid.New().String() + `",
			"event_type": "something.new",
			"occurred_at": "2026-03-01T12:00:00Z"
		}`)
		env, err := Decode(raw)
		require.NoError(t, err)
		assert.False(t, env.Type.Recognized())
	})
}

func TestEncodeDecode_Symmetry(t *testing.T) {
	env := Envelope{
		ID:          domain.NewEventID(),
		Type:        TypeReplyCreated,
		OccurredAt:  time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC),
		ActorCohort: "millennial",
		Payload:     []byte(`{"topic":"gardening"}`),
	}

	raw, err := Encode(env)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, env.Type, got.Type)
	assert.Equal(t, env.ActorCohort, got.ActorCohort)
	assert.Equal(t, "gardening", got.DecodeContent().Topic)
}
