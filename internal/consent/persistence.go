package consent

import (
	"context"
	"sync"

	"nestsync/pkg/domain"
)

// Persistence is the durable backing for the consent cache. SaveAll replaces
// the whole snapshot atomically: either the new snapshot lands or the prior
// one is retained.
type Persistence interface {
	LoadAll(ctx context.Context) (map[domain.ConsentType]ConsentRecord, error)
	SaveAll(ctx context.Context, records map[domain.ConsentType]ConsentRecord) error
}

// MemoryStore keeps the snapshot in process memory. Used in tests and for
// ephemeral sessions where decisions should not outlive the process.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[domain.ConsentType]ConsentRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[domain.ConsentType]ConsentRecord)}
}

func (s *MemoryStore) LoadAll(_ context.Context) (map[domain.ConsentType]ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.ConsentType]ConsentRecord, len(s.records))
	for t, r := range s.records {
		out[t] = r
	}
	return out, nil
}

func (s *MemoryStore) SaveAll(_ context.Context, records map[domain.ConsentType]ConsentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[domain.ConsentType]ConsentRecord, len(records))
	for t, r := range records {
		s.records[t] = r
	}
	return nil
}
