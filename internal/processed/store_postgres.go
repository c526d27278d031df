package processed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

// PostgresStore persists processed-event markers. Mark relies on the primary
// key constraint rather than ON CONFLICT so a concurrent duplicate attempt
// surfaces as ErrDuplicate and that consumer treats the event as handled.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const uniqueViolation = "23505"

func (s *PostgresStore) Mark(ctx context.Context, id domain.EventID, cohort domain.Cohort) error {
	query := `INSERT INTO processed_events (event_id, actor_cohort) VALUES ($1, $2)`
	var cohortArg sql.NullString
	if cohort != "" {
		cohortArg = sql.NullString{String: string(cohort), Valid: true}
	}
	_, err := s.execer(ctx).ExecContext(ctx, query, id.String(), cohortArg)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, id domain.EventID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)`
	var exists bool
	if err := s.execer(ctx).QueryRowContext(ctx, query, id.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Clear(ctx context.Context, cohort domain.Cohort) error {
	var err error
	if cohort == "" {
		_, err = s.execer(ctx).ExecContext(ctx, `DELETE FROM processed_events`)
	} else {
		_, err = s.execer(ctx).ExecContext(ctx,
			`DELETE FROM processed_events WHERE actor_cohort = $1`, string(cohort))
	}
	if err != nil {
		return fmt.Errorf("clear processed: %w", err)
	}
	return nil
}
