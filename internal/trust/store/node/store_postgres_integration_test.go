//go:build integration

package node_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vouch/internal/trust/models"
	"vouch/internal/trust/store/node"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/testutil/containers"
)

type PostgresNodeStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *node.PostgresStore
}

func TestPostgresNodeStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresNodeStoreSuite))
}

func (s *PostgresNodeStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = node.NewPostgres(s.postgres.DB)
}

func (s *PostgresNodeStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "trust_nodes"))
}

func (s *PostgresNodeStoreSuite) newIdentity() domain.IdentityID {
	id, err := domain.ParseIdentityID(uuid.New().String())
	s.Require().NoError(err)
	return id
}

func (s *PostgresNodeStoreSuite) seed(identity domain.IdentityID, cohort domain.Cohort, score, volatility float64) *models.Node {
	n := &models.Node{
		IdentityID:  identity,
		Cohort:      cohort,
		Score:       score,
		Volatility:  volatility,
		SameCount:   2,
		CrossCount:  1,
		AlgoVersion: "v1",
		ComputedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	n.RecomputeQualityRatio()
	s.Require().NoError(s.store.Upsert(context.Background(), n))
	return n
}

func (s *PostgresNodeStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), s.newIdentity(), "gen-z")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresNodeStoreSuite) TestUpsertInsertsThenUpdates() {
	ctx := context.Background()
	identity := s.newIdentity()
	n := s.seed(identity, "gen-z", 3.5, 0.5)

	got, err := s.store.Get(ctx, identity, "gen-z")
	s.Require().NoError(err)
	s.Equal(n.Score, got.Score)
	s.Equal(n.QualityRatio, got.QualityRatio)
	s.True(n.ComputedAt.Equal(got.ComputedAt))

	n.Score = 5.0
	n.CrossEventCount = 4
	n.RecomputeQualityRatio()
	s.Require().NoError(s.store.Upsert(ctx, n))

	got, err = s.store.Get(ctx, identity, "gen-z")
	s.Require().NoError(err)
	s.Equal(5.0, got.Score)
	s.Equal(4, got.CrossEventCount)
	s.Equal(n.QualityRatio, got.QualityRatio)
}

func (s *PostgresNodeStoreSuite) TestListByIdentitySpansCohorts() {
	identity := s.newIdentity()
	s.seed(identity, "millennial", 1, 0)
	s.seed(identity, "gen-z", 2, 0)
	s.seed(s.newIdentity(), "gen-z", 9, 0)

	nodes, err := s.store.ListByIdentity(context.Background(), identity)
	s.Require().NoError(err)
	s.Require().Len(nodes, 2)
	s.Equal(domain.Cohort("gen-z"), nodes[0].Cohort)
	s.Equal(domain.Cohort("millennial"), nodes[1].Cohort)
}

func (s *PostgresNodeStoreSuite) TestListVolatileOrdersDescending() {
	s.seed(s.newIdentity(), "gen-z", 1, 2.0)
	s.seed(s.newIdentity(), "gen-z", 1, 8.0)
	s.seed(s.newIdentity(), "millennial", 1, 5.0)

	nodes, err := s.store.ListVolatile(context.Background(), 3.0)
	s.Require().NoError(err)
	s.Require().Len(nodes, 2)
	s.Equal(8.0, nodes[0].Volatility)
	s.Equal(5.0, nodes[1].Volatility)
}

// TestScoresSumAcrossCohorts verifies the batch query an identity's total
// credibility comes from: one identity may hold a node per cohort.
func (s *PostgresNodeStoreSuite) TestScoresSumAcrossCohorts() {
	split := s.newIdentity()
	single := s.newIdentity()
	absent := s.newIdentity()
	s.seed(split, "gen-z", 3, 0)
	s.seed(split, "millennial", 4, 0)
	s.seed(single, "gen-z", -2, 0)

	scores, err := s.store.Scores(context.Background(), []domain.IdentityID{split, single, absent})
	s.Require().NoError(err)
	s.Len(scores, 2)
	s.Equal(7.0, scores[split])
	s.Equal(-2.0, scores[single])
	_, ok := scores[absent]
	s.False(ok)
}

func (s *PostgresNodeStoreSuite) TestClearScoped() {
	ctx := context.Background()
	identity := s.newIdentity()
	s.seed(identity, "gen-z", 1, 0)
	s.seed(identity, "millennial", 2, 0)

	s.Require().NoError(s.store.Clear(ctx, "gen-z"))

	_, err := s.store.Get(ctx, identity, "gen-z")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	kept, err := s.store.Get(ctx, identity, "millennial")
	s.Require().NoError(err)
	s.Equal(2.0, kept.Score)
}
