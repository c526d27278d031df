package node

import (
	"context"
	"sort"
	"sync"

	"vouch/internal/trust/models"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

type key struct {
	identity domain.IdentityID
	cohort   domain.Cohort
}

type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[key]*models.Node
}

func NewMemory() *MemoryStore {
	return &MemoryStore{nodes: make(map[key]*models.Node)}
}

func (s *MemoryStore) Get(_ context.Context, identity domain.IdentityID, cohort domain.Cohort) (*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[key{identity, cohort}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *MemoryStore) Upsert(_ context.Context, node *models.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *node
	s.nodes[key{node.IdentityID, node.Cohort}] = &cp
	return nil
}

func (s *MemoryStore) ListByIdentity(_ context.Context, identity domain.IdentityID) ([]*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Node
	for k, n := range s.nodes {
		if k.identity == identity {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cohort < out[j].Cohort })
	return out, nil
}

func (s *MemoryStore) ListVolatile(_ context.Context, threshold float64) ([]*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Node
	for _, n := range s.nodes {
		if n.Volatility > threshold {
			cp := *n
			out = append(out, &cp)
		}
	}
	// Most volatile first, matching the Postgres ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].Volatility > out[j].Volatility })
	return out, nil
}

func (s *MemoryStore) Scores(_ context.Context, ids []domain.IdentityID) (map[domain.IdentityID]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.IdentityID]float64)
	for _, id := range ids {
		found := false
		var total float64
		for k, n := range s.nodes {
			if k.identity == id {
				found = true
				total += n.Score
			}
		}
		if found {
			out[id] = total
		}
	}
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, cohort domain.Cohort) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cohort == "" {
		s.nodes = make(map[key]*models.Node)
		return nil
	}
	for k := range s.nodes {
		if k.cohort == cohort {
			delete(s.nodes, k)
		}
	}
	return nil
}
