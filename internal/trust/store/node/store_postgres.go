package node

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"vouch/internal/trust/models"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

// PostgresStore persists trust nodes. Concurrent mutations of the same pair
// are serialized by the consumer's per-event transaction; this store is pure
// I/O.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const nodeColumns = `identity_id, cohort, score, cross_cohort_delta, volatility, quality_ratio,
	same_count, cross_count, cross_event_count, algo_version, computed_at`

func (s *PostgresStore) Get(ctx context.Context, identity domain.IdentityID, cohort domain.Cohort) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM trust_nodes WHERE identity_id = $1 AND cohort = $2`
	n, err := scanNode(s.execer(ctx).QueryRowContext(ctx, query, identity.String(), string(cohort)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get trust node: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, node *models.Node) error {
	query := `
		INSERT INTO trust_nodes (` + nodeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (identity_id, cohort) DO UPDATE SET
			score = EXCLUDED.score,
			cross_cohort_delta = EXCLUDED.cross_cohort_delta,
			volatility = EXCLUDED.volatility,
			quality_ratio = EXCLUDED.quality_ratio,
			same_count = EXCLUDED.same_count,
			cross_count = EXCLUDED.cross_count,
			cross_event_count = EXCLUDED.cross_event_count,
			algo_version = EXCLUDED.algo_version,
			computed_at = EXCLUDED.computed_at
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		node.IdentityID.String(), string(node.Cohort), node.Score, node.CrossCohortDelta,
		node.Volatility, node.QualityRatio, node.SameCount, node.CrossCount,
		node.CrossEventCount, node.AlgoVersion, node.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert trust node: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByIdentity(ctx context.Context, identity domain.IdentityID) ([]*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM trust_nodes WHERE identity_id = $1 ORDER BY cohort`
	return s.list(ctx, query, identity.String())
}

func (s *PostgresStore) ListVolatile(ctx context.Context, threshold float64) ([]*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM trust_nodes WHERE volatility > $1 ORDER BY volatility DESC`
	return s.list(ctx, query, threshold)
}

func (s *PostgresStore) Scores(ctx context.Context, ids []domain.IdentityID) (map[domain.IdentityID]float64, error) {
	if len(ids) == 0 {
		return map[domain.IdentityID]float64{}, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	query := `
		SELECT identity_id, SUM(score)
		FROM trust_nodes
		WHERE identity_id = ANY($1)
		GROUP BY identity_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(strs))
	if err != nil {
		return nil, fmt.Errorf("batch scores: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.IdentityID]float64)
	for rows.Next() {
		var idStr string
		var score float64
		if err := rows.Scan(&idStr, &score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		id, err := domain.ParseIdentityID(idStr)
		if err != nil {
			return nil, fmt.Errorf("stored identity id: %w", err)
		}
		out[id] = score
	}
	return out, rows.Err()
}

func (s *PostgresStore) Clear(ctx context.Context, cohort domain.Cohort) error {
	var err error
	if cohort == "" {
		_, err = s.execer(ctx).ExecContext(ctx, `DELETE FROM trust_nodes`)
	} else {
		_, err = s.execer(ctx).ExecContext(ctx, `DELETE FROM trust_nodes WHERE cohort = $1`, string(cohort))
	}
	if err != nil {
		return fmt.Errorf("clear trust nodes: %w", err)
	}
	return nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Node, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trust nodes: %w", err)
	}
	defer rows.Close()

	var out []*models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trust node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*models.Node, error) {
	var (
		n            models.Node
		identityStr  string
		cohortStr    string
	)
	err := row.Scan(&identityStr, &cohortStr, &n.Score, &n.CrossCohortDelta, &n.Volatility,
		&n.QualityRatio, &n.SameCount, &n.CrossCount, &n.CrossEventCount, &n.AlgoVersion, &n.ComputedAt)
	if err != nil {
		return nil, err
	}
	identity, err := domain.ParseIdentityID(identityStr)
	if err != nil {
		return nil, fmt.Errorf("stored identity id: %w", err)
	}
	n.IdentityID = identity
	n.Cohort = domain.Cohort(cohortStr)
	n.ComputedAt = n.ComputedAt.UTC()
	return &n, nil
}
