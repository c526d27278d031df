package processed

import (
	"context"
	"sync"

	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

type MemoryStore struct {
	mu      sync.RWMutex
	applied map[domain.EventID]domain.Cohort
}

func NewMemory() *MemoryStore {
	return &MemoryStore{applied: make(map[domain.EventID]domain.Cohort)}
}

func (s *MemoryStore) Mark(_ context.Context, id domain.EventID, cohort domain.Cohort) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.applied[id]; exists {
		return sentinel.ErrDuplicate
	}
	s.applied[id] = cohort
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, id domain.EventID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.applied[id]
	return exists, nil
}

func (s *MemoryStore) Clear(_ context.Context, cohort domain.Cohort) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cohort == "" {
		s.applied = make(map[domain.EventID]domain.Cohort)
		return nil
	}
	for id, c := range s.applied {
		if c == cohort {
			delete(s.applied, id)
		}
	}
	return nil
}
