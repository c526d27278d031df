package insights

import (
	"context"
	"sync"
	"time"
)

type activityKey struct {
	day    time.Time
	topic  string
	cohort string
}

type volatilityKey struct {
	day   time.Time
	topic string
}

type windowKey struct {
	hour   time.Time
	active bool
}

type volatilityVal struct {
	weight float64
	count  int64
}

type MemoryStore struct {
	mu         sync.RWMutex
	activity   map[activityKey]int64
	volatility map[volatilityKey]volatilityVal
	window     map[windowKey]int64
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		activity:   make(map[activityKey]int64),
		volatility: make(map[volatilityKey]volatilityVal),
		window:     make(map[windowKey]int64),
	}
}

func (s *MemoryStore) IncrActivity(_ context.Context, day time.Time, topic, cohort string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity[activityKey{day, topic, cohort}]++
	return nil
}

func (s *MemoryStore) IncrVolatility(_ context.Context, day time.Time, topic string, weight float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.volatility[volatilityKey{day, topic}]
	v.weight += weight
	v.count++
	s.volatility[volatilityKey{day, topic}] = v
	return nil
}

func (s *MemoryStore) IncrWindow(_ context.Context, hour time.Time, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window[windowKey{hour, active}]++
	return nil
}

func (s *MemoryStore) ActivitySince(_ context.Context, since time.Time) ([]ActivityRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ActivityRow
	for k, count := range s.activity {
		if k.day.Before(since) {
			continue
		}
		out = append(out, ActivityRow{Day: k.day, Topic: k.topic, Cohort: k.cohort, Count: count})
	}
	return out, nil
}

func (s *MemoryStore) VolatilitySince(_ context.Context, since time.Time) ([]VolatilityRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []VolatilityRow
	for k, v := range s.volatility {
		if k.day.Before(since) {
			continue
		}
		out = append(out, VolatilityRow{Day: k.day, Topic: k.topic, Weight: v.weight, Count: v.count})
	}
	return out, nil
}

func (s *MemoryStore) WindowSince(_ context.Context, since time.Time) ([]WindowRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []WindowRow
	for k, count := range s.window {
		if k.hour.Before(since) {
			continue
		}
		out = append(out, WindowRow{Hour: k.hour, Active: k.active, Count: count})
	}
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = make(map[activityKey]int64)
	s.volatility = make(map[volatilityKey]volatilityVal)
	s.window = make(map[windowKey]int64)
	return nil
}
