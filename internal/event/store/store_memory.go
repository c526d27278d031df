package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"vouch/internal/event"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

// MemoryStore is the in-memory event log used by unit tests and dry-run
// replays.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[domain.EventID]event.Envelope
	sorted []event.Envelope
}

func NewMemory() *MemoryStore {
	return &MemoryStore{byID: make(map[domain.EventID]event.Envelope)}
}

func (s *MemoryStore) Append(_ context.Context, env event.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[env.ID]; exists {
		return nil
	}
	s.byID[env.ID] = env
	s.sorted = append(s.sorted, env)
	sort.SliceStable(s.sorted, func(i, j int) bool {
		if s.sorted[i].OccurredAt.Equal(s.sorted[j].OccurredAt) {
			return s.sorted[i].ID.String() < s.sorted[j].ID.String()
		}
		return s.sorted[i].OccurredAt.Before(s.sorted[j].OccurredAt)
	})
	return nil
}

func (s *MemoryStore) ListAscending(_ context.Context, cohort domain.Cohort) ([]event.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]event.Envelope, 0, len(s.sorted))
	for _, env := range s.sorted {
		if cohort != "" && env.ActorCohort != cohort {
			continue
		}
		out = append(out, env)
	}
	return out, nil
}

func (s *MemoryStore) LatestWindowMarker(_ context.Context, asOf time.Time) (event.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.sorted) - 1; i >= 0; i-- {
		if s.sorted[i].Type.IsWindowMarker() && !s.sorted[i].OccurredAt.After(asOf) {
			return s.sorted[i], nil
		}
	}
	return event.Envelope{}, sentinel.ErrNotFound
}

func (s *MemoryStore) Count(ctx context.Context, cohort domain.Cohort) (int, error) {
	events, err := s.ListAscending(ctx, cohort)
	if err != nil {
		return 0, err
	}
	return len(events), nil
}
