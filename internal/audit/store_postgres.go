package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists audit events. Append-only: events are never updated
// or deleted inside the retention window.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema for reference; migrations own the authoritative DDL.
//
//	CREATE TABLE consent_audit_events (
//	    id           UUID PRIMARY KEY,
//	    occurred_at  TIMESTAMPTZ NOT NULL,
//	    subject_id   TEXT NOT NULL,
//	    action       TEXT NOT NULL,
//	    consent_type TEXT NOT NULL,
//	    version      TEXT NOT NULL,
//	    feature      TEXT NOT NULL DEFAULT '',
//	    platform     TEXT NOT NULL DEFAULT '',
//	    request_id   TEXT NOT NULL DEFAULT ''
//	);
//	CREATE INDEX idx_consent_audit_subject ON consent_audit_events (subject_id, occurred_at);

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO consent_audit_events
			(id, occurred_at, subject_id, action, consent_type, version, feature, platform, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.Timestamp, event.SubjectID, event.Action,
		event.ConsentType, event.Version, event.Feature, event.Platform, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID string) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, occurred_at, subject_id, action, consent_type, version, feature, platform, request_id
		FROM consent_audit_events
		WHERE subject_id = $1
		ORDER BY occurred_at`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.SubjectID, &e.Action,
			&e.ConsentType, &e.Version, &e.Feature, &e.Platform, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
