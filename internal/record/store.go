package record

import (
	"context"

	"nestsync/pkg/domain"
)

type Store interface {
	// Append persists a decision. Decisions are immutable; a newer decision
	// for the same type supersedes rather than overwrites.
	Append(ctx context.Context, decision Decision) error
	// ListBySubject returns all decisions for a subject, oldest first.
	ListBySubject(ctx context.Context, subjectID string) ([]Decision, error)
	// Latest returns the most recent decision for a subject and type, or
	// sentinel.ErrNotFound.
	Latest(ctx context.Context, subjectID string, t domain.ConsentType) (Decision, error)
}
