package insights

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	txcontext "vouch/pkg/platform/tx"
)

// PostgresStore persists rollups with increment-in-place upserts so ingestion
// stays a single round-trip per bucket.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) IncrActivity(ctx context.Context, day time.Time, topic, cohort string) error {
	query := `
		INSERT INTO rollup_activity (day, topic, cohort, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (day, topic, cohort) DO UPDATE SET count = rollup_activity.count + 1
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, day, topic, cohort); err != nil {
		return fmt.Errorf("increment activity rollup: %w", err)
	}
	return nil
}

func (s *PostgresStore) IncrVolatility(ctx context.Context, day time.Time, topic string, weight float64) error {
	query := `
		INSERT INTO rollup_volatility (day, topic, weight, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (day, topic) DO UPDATE SET
			weight = rollup_volatility.weight + EXCLUDED.weight,
			count = rollup_volatility.count + 1
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, day, topic, weight); err != nil {
		return fmt.Errorf("increment volatility rollup: %w", err)
	}
	return nil
}

func (s *PostgresStore) IncrWindow(ctx context.Context, hour time.Time, active bool) error {
	query := `
		INSERT INTO rollup_window (hour, window_active, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (hour, window_active) DO UPDATE SET count = rollup_window.count + 1
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, hour, active); err != nil {
		return fmt.Errorf("increment window rollup: %w", err)
	}
	return nil
}

func (s *PostgresStore) ActivitySince(ctx context.Context, since time.Time) ([]ActivityRow, error) {
	query := `SELECT day, topic, cohort, count FROM rollup_activity WHERE day >= $1 ORDER BY day, topic, cohort`
	rows, err := s.execer(ctx).QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("activity rollups: %w", err)
	}
	defer rows.Close()

	var out []ActivityRow
	for rows.Next() {
		var r ActivityRow
		if err := rows.Scan(&r.Day, &r.Topic, &r.Cohort, &r.Count); err != nil {
			return nil, fmt.Errorf("scan activity rollup: %w", err)
		}
		r.Day = r.Day.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) VolatilitySince(ctx context.Context, since time.Time) ([]VolatilityRow, error) {
	query := `SELECT day, topic, weight, count FROM rollup_volatility WHERE day >= $1 ORDER BY day, topic`
	rows, err := s.execer(ctx).QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("volatility rollups: %w", err)
	}
	defer rows.Close()

	var out []VolatilityRow
	for rows.Next() {
		var r VolatilityRow
		if err := rows.Scan(&r.Day, &r.Topic, &r.Weight, &r.Count); err != nil {
			return nil, fmt.Errorf("scan volatility rollup: %w", err)
		}
		r.Day = r.Day.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) WindowSince(ctx context.Context, since time.Time) ([]WindowRow, error) {
	query := `SELECT hour, window_active, count FROM rollup_window WHERE hour >= $1 ORDER BY hour, window_active`
	rows, err := s.execer(ctx).QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("window rollups: %w", err)
	}
	defer rows.Close()

	var out []WindowRow
	for rows.Next() {
		var r WindowRow
		if err := rows.Scan(&r.Hour, &r.Active, &r.Count); err != nil {
			return nil, fmt.Errorf("scan window rollup: %w", err)
		}
		r.Hour = r.Hour.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	for _, table := range []string{"rollup_activity", "rollup_volatility", "rollup_window"} {
		if _, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
