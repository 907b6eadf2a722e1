package audit

import "context"

// Sink receives audit events. Stores and brokers both implement it so the
// worker can fan events out without knowing the destination.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a queryable sink backing the audit trail API.
type Store interface {
	Sink
	ListBySubject(ctx context.Context, subjectID string) ([]Event, error)
}
