package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nestsync/pkg/domain"
	"nestsync/pkg/platform/sentinel"
)

// PostgresStore persists decisions in the consent_decisions table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema for reference; migrations own the authoritative DDL.
//
//	CREATE TABLE consent_decisions (
//	    id           UUID PRIMARY KEY,
//	    subject_id   TEXT NOT NULL,
//	    consent_type TEXT NOT NULL,
//	    granted      BOOLEAN NOT NULL,
//	    version      TEXT NOT NULL,
//	    purpose      TEXT NOT NULL,
//	    feature      TEXT NOT NULL DEFAULT '',
//	    platform     TEXT NOT NULL DEFAULT '',
//	    recorded_at  TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX idx_consent_decisions_subject ON consent_decisions (subject_id, recorded_at);

func (s *PostgresStore) Append(ctx context.Context, decision Decision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consent_decisions
			(id, subject_id, consent_type, granted, version, purpose, feature, platform, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		decision.ID, decision.SubjectID, decision.ConsentType.String(), decision.Granted,
		decision.Version, decision.Purpose, decision.Feature, decision.Platform, decision.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert consent decision: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID string) ([]Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, consent_type, granted, version, purpose, feature, platform, recorded_at
		FROM consent_decisions
		WHERE subject_id = $1
		ORDER BY recorded_at`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list consent decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		decision, err := scanDecision(rows.Scan)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, decision)
	}
	return decisions, rows.Err()
}

func (s *PostgresStore) Latest(ctx context.Context, subjectID string, t domain.ConsentType) (Decision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject_id, consent_type, granted, version, purpose, feature, platform, recorded_at
		FROM consent_decisions
		WHERE subject_id = $1 AND consent_type = $2
		ORDER BY recorded_at DESC
		LIMIT 1`,
		subjectID, t.String(),
	)
	decision, err := scanDecision(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Decision{}, sentinel.ErrNotFound
	}
	return decision, err
}

func scanDecision(scan func(...any) error) (Decision, error) {
	var d Decision
	var consentType string
	err := scan(&d.ID, &d.SubjectID, &consentType, &d.Granted,
		&d.Version, &d.Purpose, &d.Feature, &d.Platform, &d.RecordedAt)
	if err != nil {
		return Decision{}, err
	}
	d.ConsentType = domain.ConsentType(consentType)
	return d, nil
}
