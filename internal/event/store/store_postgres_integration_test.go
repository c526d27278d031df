//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vouch/internal/event"
	"vouch/internal/event/store"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/testutil/containers"
)

type PostgresEventStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresEventStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresEventStoreSuite))
}

func (s *PostgresEventStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresEventStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "events"))
}

func (s *PostgresEventStoreSuite) newEnvelope(typ event.Type, cohort domain.Cohort, occurredAt time.Time) event.Envelope {
	actor, err := domain.ParseIdentityID(uuid.New().String())
	s.Require().NoError(err)
	return event.Envelope{
		ID:          domain.NewEventID(),
		Type:        typ,
		ActorID:     actor,
		ActorCohort: cohort,
		OccurredAt:  occurredAt,
		Payload:     json.RawMessage(`{}`),
	}
}

// TestAppendIsIdempotent verifies that re-appending the same event id leaves
// a single row, so a redelivered record never duplicates the log.
func (s *PostgresEventStoreSuite) TestAppendIsIdempotent() {
	ctx := context.Background()
	env := s.newEnvelope(event.TypePostCreated, "gen-z", time.Now().UTC())

	s.Require().NoError(s.store.Append(ctx, env))
	s.Require().NoError(s.store.Append(ctx, env))

	n, err := s.store.Count(ctx, "")
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresEventStoreSuite) TestListAscendingOrdersByOccurrence() {
	ctx := context.Background()
	base := time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)

	// Insert out of order; the list must come back by occurred_at.
	late := s.newEnvelope(event.TypeReplyCreated, "gen-z", base.Add(3*time.Minute))
	early := s.newEnvelope(event.TypePostCreated, "gen-z", base)
	mid := s.newEnvelope(event.TypePostCreated, "millennial", base.Add(time.Minute))
	for _, env := range []event.Envelope{late, early, mid} {
		s.Require().NoError(s.store.Append(ctx, env))
	}

	all, err := s.store.ListAscending(ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(early.ID, all[0].ID)
	s.Equal(mid.ID, all[1].ID)
	s.Equal(late.ID, all[2].ID)

	genZ, err := s.store.ListAscending(ctx, "gen-z")
	s.Require().NoError(err)
	s.Require().Len(genZ, 2)
	s.Equal(early.ID, genZ[0].ID)
	s.Equal(late.ID, genZ[1].ID)
}

func (s *PostgresEventStoreSuite) TestAppendPreservesEnvelopeFields() {
	ctx := context.Background()
	env := s.newEnvelope(event.TypeEndorsementGiven, "gen-z", time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC))
	env.CorrelationID = "corr-42"
	env.Payload = json.RawMessage(`{"target_id":"x","target_cohort":"millennial"}`)
	s.Require().NoError(s.store.Append(ctx, env))

	all, err := s.store.ListAscending(ctx, "")
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	got := all[0]
	s.Equal(env.ID, got.ID)
	s.Equal(env.Type, got.Type)
	s.Equal(env.ActorID, got.ActorID)
	s.Equal(env.ActorCohort, got.ActorCohort)
	s.Equal(env.CorrelationID, got.CorrelationID)
	s.True(env.OccurredAt.Equal(got.OccurredAt))
	s.JSONEq(string(env.Payload), string(got.Payload))
}

func (s *PostgresEventStoreSuite) TestLatestWindowMarker() {
	ctx := context.Background()
	base := time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)

	_, err := s.store.LatestWindowMarker(ctx, base)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	started := s.newEnvelope(event.TypeWindowStarted, "", base.Add(5*time.Minute))
	ended := s.newEnvelope(event.TypeWindowEnded, "", base.Add(10*time.Minute))
	noise := s.newEnvelope(event.TypePostCreated, "gen-z", base.Add(7*time.Minute))
	for _, env := range []event.Envelope{started, ended, noise} {
		s.Require().NoError(s.store.Append(ctx, env))
	}

	s.Run("before any marker", func() {
		_, err := s.store.LatestWindowMarker(ctx, base.Add(4*time.Minute))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("asOf is inclusive", func() {
		marker, err := s.store.LatestWindowMarker(ctx, base.Add(5*time.Minute))
		s.Require().NoError(err)
		s.Equal(started.ID, marker.ID)
	})

	s.Run("ordinary events are not markers", func() {
		marker, err := s.store.LatestWindowMarker(ctx, base.Add(8*time.Minute))
		s.Require().NoError(err)
		s.Equal(started.ID, marker.ID)
	})

	s.Run("latest marker wins", func() {
		marker, err := s.store.LatestWindowMarker(ctx, base.Add(time.Hour))
		s.Require().NoError(err)
		s.Equal(ended.ID, marker.ID)
		s.Equal(event.TypeWindowEnded, marker.Type)
	})
}
