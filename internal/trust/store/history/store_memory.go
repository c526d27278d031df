package history

import (
	"context"
	"sync"

	"vouch/internal/trust/models"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

type pairKey struct {
	identity domain.IdentityID
	cohort   domain.Cohort
}

// MemoryStore keeps entries per pair in append order.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[pairKey][]models.HistoryEntry
}

func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[pairKey][]models.HistoryEntry)}
}

func (s *MemoryStore) Append(_ context.Context, entry models.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := pairKey{entry.IdentityID, entry.Cohort}
	s.entries[k] = append(s.entries[k], entry)
	return nil
}

func (s *MemoryStore) Latest(_ context.Context, identity domain.IdentityID, cohort domain.Cohort, metric string) (models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[pairKey{identity, cohort}]
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Metric == metric {
			return entries[i], nil
		}
	}
	return models.HistoryEntry{}, sentinel.ErrNotFound
}

func (s *MemoryStore) Recent(_ context.Context, identity domain.IdentityID, cohort domain.Cohort, limit int) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.entries[pairKey{identity, cohort}]
	var out []models.HistoryEntry
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, cohort domain.Cohort) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cohort == "" {
		s.entries = make(map[pairKey][]models.HistoryEntry)
		return nil
	}
	for k := range s.entries {
		if k.cohort == cohort {
			delete(s.entries, k)
		}
	}
	return nil
}
