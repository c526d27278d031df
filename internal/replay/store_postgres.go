package replay

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

// PostgresStore persists run records. A partial unique index over
// status = 'running' makes Begin the lock acquisition: the second concurrent
// insert violates the index and that caller gets ErrReplayActive.
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

func (s *PostgresStore) Begin(ctx context.Context, run Run) error {
	query := `
		INSERT INTO replay_runs (id, scope, dry_run, status, started_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		run.ID, string(run.Scope), run.DryRun, string(StatusRunning), run.StartedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrReplayActive
		}
		return fmt.Errorf("begin replay run: %w", err)
	}
	return nil
}

func (s *PostgresStore) Active(ctx context.Context) (Run, error) {
	query := `
		SELECT id, scope, dry_run, status, started_at, events_replayed, last_error
		FROM replay_runs
		WHERE status = $1`
	var (
		run   Run
		scope string
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, string(StatusRunning)).Scan(
		&run.ID, &scope, &run.DryRun, &run.Status, &run.StartedAt,
		&run.EventsReplayed, &run.LastError,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("active replay run: %w", err)
	}
	run.Scope = domain.Cohort(scope)
	return run, nil
}

func (s *PostgresStore) Complete(ctx context.Context, id uuid.UUID, events int) error {
	query := `
		UPDATE replay_runs
		SET status = $2, completed_at = now(), events_replayed = $3
		WHERE id = $1`
	return s.finish(ctx, query, id, StatusCompleted, events)
}

func (s *PostgresStore) Fail(ctx context.Context, id uuid.UUID, cause string) error {
	query := `
		UPDATE replay_runs
		SET status = $2, completed_at = now(), last_error = $3
		WHERE id = $1`
	res, err := s.execer(ctx).ExecContext(ctx, query, id, string(StatusFailed), cause)
	if err != nil {
		return fmt.Errorf("fail replay run: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) Supersede(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE replay_runs
		SET status = $2, completed_at = now()
		WHERE id = $1 AND status = $3`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		id, string(StatusSuperseded), string(StatusRunning))
	if err != nil {
		return fmt.Errorf("supersede replay run: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) finish(ctx context.Context, query string, id uuid.UUID, status Status, events int) error {
	res, err := s.execer(ctx).ExecContext(ctx, query, id, string(status), events)
	if err != nil {
		return fmt.Errorf("finish replay run: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
