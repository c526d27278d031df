package history

import (
	"context"
	"database/sql"
	"fmt"

	"vouch/internal/trust/models"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

// PostgresStore persists history entries. The serial primary key preserves
// apply order, so Latest is correct even when consecutive entries share a
// recorded_at timestamp.
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

func (s *PostgresStore) Append(ctx context.Context, entry models.HistoryEntry) error {
	query := `
		INSERT INTO trust_history (identity_id, cohort, metric, value, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.IdentityID.String(), string(entry.Cohort), entry.Metric, entry.Value, entry.RecordedAt)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, identity domain.IdentityID, cohort domain.Cohort, metric string) (models.HistoryEntry, error) {
	query := `
		SELECT identity_id, cohort, metric, value, recorded_at
		FROM trust_history
		WHERE identity_id = $1 AND cohort = $2 AND metric = $3
		ORDER BY id DESC
		LIMIT 1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, identity.String(), string(cohort), metric)
	entry, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.HistoryEntry{}, sentinel.ErrNotFound
		}
		return models.HistoryEntry{}, fmt.Errorf("latest history: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) Recent(ctx context.Context, identity domain.IdentityID, cohort domain.Cohort, limit int) ([]models.HistoryEntry, error) {
	query := `
		SELECT identity_id, cohort, metric, value, recorded_at
		FROM trust_history
		WHERE identity_id = $1 AND cohort = $2
		ORDER BY id DESC
		LIMIT $3
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, identity.String(), string(cohort), limit)
	if err != nil {
		return nil, fmt.Errorf("recent history: %w", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Clear(ctx context.Context, cohort domain.Cohort) error {
	var err error
	if cohort == "" {
		_, err = s.execer(ctx).ExecContext(ctx, `DELETE FROM trust_history`)
	} else {
		_, err = s.execer(ctx).ExecContext(ctx, `DELETE FROM trust_history WHERE cohort = $1`, string(cohort))
	}
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.HistoryEntry, error) {
	var (
		e           models.HistoryEntry
		identityStr string
		cohortStr   string
	)
	if err := row.Scan(&identityStr, &cohortStr, &e.Metric, &e.Value, &e.RecordedAt); err != nil {
		return models.HistoryEntry{}, err
	}
	identity, err := domain.ParseIdentityID(identityStr)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("stored identity id: %w", err)
	}
	e.IdentityID = identity
	e.Cohort = domain.Cohort(cohortStr)
	e.RecordedAt = e.RecordedAt.UTC()
	return e, nil
}
