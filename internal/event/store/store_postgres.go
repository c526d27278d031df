package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vouch/internal/event"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
	txcontext "vouch/pkg/platform/tx"
)

// PostgresStore persists the event log in PostgreSQL. It participates in the
// consumer's per-event transaction when one is carried in context.
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

func (s *PostgresStore) Append(ctx context.Context, env event.Envelope) error {
	query := `
		INSERT INTO events (id, event_type, actor_id, actor_cohort, occurred_at, correlation_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	var actorID, cohort, correlation sql.NullString
	if !env.ActorID.IsNil() {
		actorID = sql.NullString{String: env.ActorID.String(), Valid: true}
	}
	if env.ActorCohort != "" {
		cohort = sql.NullString{String: string(env.ActorCohort), Valid: true}
	}
	if env.CorrelationID != "" {
		correlation = sql.NullString{String: env.CorrelationID, Valid: true}
	}
	payload := env.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	_, err := s.execer(ctx).ExecContext(ctx, query,
		env.ID.String(), string(env.Type), actorID, cohort, env.OccurredAt, correlation, []byte(payload))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAscending(ctx context.Context, cohort domain.Cohort) ([]event.Envelope, error) {
	query := `
		SELECT id, event_type, actor_id, actor_cohort, occurred_at, correlation_id, payload
		FROM events
	`
	args := []any{}
	if cohort != "" {
		query += ` WHERE actor_cohort = $1`
		args = append(args, string(cohort))
	}
	query += ` ORDER BY occurred_at ASC, id ASC`

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []event.Envelope
	for rows.Next() {
		env, err := scanEnvelope(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, rows.Err()
}

func (s *PostgresStore) LatestWindowMarker(ctx context.Context, asOf time.Time) (event.Envelope, error) {
	query := `
		SELECT id, event_type, actor_id, actor_cohort, occurred_at, correlation_id, payload
		FROM events
		WHERE event_type IN ($1, $2) AND occurred_at <= $3
		ORDER BY occurred_at DESC, id DESC
		LIMIT 1
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query,
		string(event.TypeWindowStarted), string(event.TypeWindowEnded), asOf)
	if err != nil {
		return event.Envelope{}, fmt.Errorf("latest window marker: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return event.Envelope{}, sentinel.ErrNotFound
	}
	return scanEnvelope(rows)
}

func (s *PostgresStore) Count(ctx context.Context, cohort domain.Cohort) (int, error) {
	query := `SELECT COUNT(*) FROM events`
	args := []any{}
	if cohort != "" {
		query += ` WHERE actor_cohort = $1`
		args = append(args, string(cohort))
	}
	var n int
	if err := s.execer(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func scanEnvelope(rows *sql.Rows) (event.Envelope, error) {
	var (
		id, eventType               string
		actorID, cohort, correlation sql.NullString
		occurredAt                  time.Time
		payload                     []byte
	)
	if err := rows.Scan(&id, &eventType, &actorID, &cohort, &occurredAt, &correlation, &payload); err != nil {
		return event.Envelope{}, fmt.Errorf("scan event: %w", err)
	}

	eventID, err := domain.ParseEventID(id)
	if err != nil {
		return event.Envelope{}, fmt.Errorf("stored event id: %w", err)
	}

	env := event.Envelope{
		ID:         eventID,
		Type:       event.Type(eventType),
		OccurredAt: occurredAt.UTC(),
		Payload:    payload,
	}
	if actorID.Valid {
		actor, err := domain.ParseIdentityID(actorID.String)
		if err != nil {
			return event.Envelope{}, fmt.Errorf("stored actor id: %w", err)
		}
		env.ActorID = actor
	}
	if cohort.Valid {
		env.ActorCohort = domain.Cohort(cohort.String)
	}
	if correlation.Valid {
		env.CorrelationID = correlation.String
	}
	return env, nil
}
