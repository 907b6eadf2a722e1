package record

import (
	"context"
	"sync"

	"nestsync/pkg/domain"
	"nestsync/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	decisions map[string][]Decision
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{decisions: make(map[string][]Decision)}
}

func (s *InMemoryStore) Append(_ context.Context, decision Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[decision.SubjectID] = append(s.decisions[decision.SubjectID], decision)
	return nil
}

func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID string) ([]Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Decision{}, s.decisions[subjectID]...), nil
}

func (s *InMemoryStore) Latest(_ context.Context, subjectID string, t domain.ConsentType) (Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	decisions := s.decisions[subjectID]
	for i := len(decisions) - 1; i >= 0; i-- {
		if decisions[i].ConsentType == t {
			return decisions[i], nil
		}
	}
	return Decision{}, sentinel.ErrNotFound
}
