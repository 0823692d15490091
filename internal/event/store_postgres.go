package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore archives lifecycle events durably. The table is append-only;
// history is never rewritten, matching the rule that session records are
// never deleted.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the archive table when it does not exist yet. Venue
// deployments are single-schema, so a guarded DDL statement beats carrying a
// migration tool.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS lifecycle_events (
			id               TEXT PRIMARY KEY,
			type             TEXT NOT NULL,
			session_id       TEXT NOT NULL,
			identity_key     TEXT NOT NULL,
			child_name       TEXT NOT NULL,
			duration_minutes INT,
			amount           BIGINT,
			occurred_at      TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate lifecycle_events: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, e Event) error {
	query := `
		INSERT INTO lifecycle_events (id, type, session_id, identity_key, child_name, duration_minutes, amount, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, string(e.Type), e.SessionID, e.IdentityKey, e.ChildName,
		e.DurationMinutes, e.Amount, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("append event %s: %w", e.ID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, since time.Time) ([]Event, error) {
	query := `
		SELECT id, type, session_id, identity_key, child_name, duration_minutes, amount, occurred_at
		FROM lifecycle_events
		WHERE $1::timestamptz IS NULL OR occurred_at >= $1
		ORDER BY occurred_at, id
	`
	var sinceArg any
	if !since.IsZero() {
		sinceArg = since
	}
	rows, err := s.db.QueryContext(ctx, query, sinceArg)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			typ     string
			minutes sql.NullInt64
			amount  sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &typ, &e.SessionID, &e.IdentityKey, &e.ChildName, &minutes, &amount, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = Type(typ)
		if minutes.Valid {
			m := int(minutes.Int64)
			e.DurationMinutes = &m
		}
		if amount.Valid {
			a := amount.Int64
			e.Amount = &a
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
