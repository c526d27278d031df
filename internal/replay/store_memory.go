package replay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"vouch/pkg/platform/sentinel"
)

type MemoryStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]Run
}

func NewMemory() *MemoryStore {
	return &MemoryStore{runs: make(map[uuid.UUID]Run)}
}

func (s *MemoryStore) Begin(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.runs {
		if r.Status == StatusRunning {
			return sentinel.ErrReplayActive
		}
	}
	run.Status = StatusRunning
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) Active(_ context.Context) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.runs {
		if r.Status == StatusRunning {
			return r, nil
		}
	}
	return Run{}, sentinel.ErrNotFound
}

func (s *MemoryStore) Complete(_ context.Context, id uuid.UUID, events int) error {
	return s.finish(id, StatusCompleted, events, "")
}

func (s *MemoryStore) Fail(_ context.Context, id uuid.UUID, cause string) error {
	return s.finish(id, StatusFailed, 0, cause)
}

func (s *MemoryStore) Supersede(_ context.Context, id uuid.UUID) error {
	return s.finish(id, StatusSuperseded, 0, "")
}

func (s *MemoryStore) finish(id uuid.UUID, status Status, events int, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.Status = status
	r.CompletedAt = time.Now().UTC()
	if events > 0 {
		r.EventsReplayed = events
	}
	r.LastError = cause
	s.runs[id] = r
	return nil
}
