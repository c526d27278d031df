package insights

import (
	"context"
	"fmt"
	"time"

	"vouch/internal/event"
	"vouch/internal/platform/metrics"
)

type Service struct {
	store   Store
	minK    int
	metrics *metrics.Metrics
}

// NewService builds the aggregator/query service. minK is the configured
// k-anonymity floor; query-time overrides may raise it but never lower it.
func NewService(store Store, minK int, m *metrics.Metrics) *Service {
	if minK < 1 {
		minK = 1
	}
	return &Service{store: store, minK: minK, metrics: m}
}

// MinK exposes the configured floor for API validation.
func (s *Service) MinK() int { return s.minK }

// Reset wipes every rollup ahead of a full recompute. Cohort-scoped replays
// must not call it: the window rollup is cohort-blind, so a partial rebuild
// would lose the other cohorts' counts.
func (s *Service) Reset(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// Aggregate folds one qualifying event into the rollups. Non-qualifying
// types are ignored; callers need not pre-filter.
func (s *Service) Aggregate(ctx context.Context, env event.Envelope, windowActive bool) error {
	var (
		topic  string
		weight float64
	)
	switch env.Type {
	case event.TypePostCreated:
		topic = env.DecodeContent().Topic
		weight = WeightPost
	case event.TypeReplyCreated:
		topic = env.DecodeContent().Topic
		weight = WeightReply
	case event.TypeEndorsementGiven:
		p, err := env.DecodeEndorsement()
		if err != nil {
			return nil
		}
		topic = p.Topic
		weight = WeightEndorsement
	default:
		return nil
	}
	if topic == "" {
		topic = DefaultTopic
	}
	cohort := string(env.ActorCohort)
	if cohort == "" {
		return nil
	}

	day := DayBucket(env.OccurredAt)
	if err := s.store.IncrActivity(ctx, day, topic, cohort); err != nil {
		return fmt.Errorf("aggregate activity: %w", err)
	}
	if err := s.store.IncrVolatility(ctx, day, topic, weight); err != nil {
		return fmt.Errorf("aggregate volatility: %w", err)
	}
	if err := s.store.IncrWindow(ctx, HourBucket(env.OccurredAt), windowActive); err != nil {
		return fmt.Errorf("aggregate window: %w", err)
	}
	return nil
}

// effectiveK clamps a requested override to the configured floor.
func (s *Service) effectiveK(requested int) int {
	if requested > s.minK {
		return requested
	}
	return s.minK
}

func (s *Service) suppressed(n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.InsightRowsHeld.Add(float64(n))
	}
}

// Divergence returns per-day (topic, cohort) activity rows over the window,
// k-gated. Cohort divergence is visible as differing counts for the same
// (day, topic) across cohorts.
func (s *Service) Divergence(ctx context.Context, now time.Time, windowDays, minK int) ([]ActivityRow, error) {
	k := s.effectiveK(minK)
	since := DayBucket(now.AddDate(0, 0, -windowDays))

	rows, err := s.store.ActivitySince(ctx, since)
	if err != nil {
		return nil, err
	}
	out := make([]ActivityRow, 0, len(rows))
	held := 0
	for _, r := range rows {
		if r.Count < int64(k) {
			held++
			continue
		}
		out = append(out, r)
	}
	s.suppressed(held)
	return out, nil
}

// Heatmap returns (topic, cohort) consensus counts summed over the window,
// k-gated on the summed count.
func (s *Service) Heatmap(ctx context.Context, now time.Time, windowDays, minK int) ([]HeatmapCell, error) {
	k := s.effectiveK(minK)
	since := DayBucket(now.AddDate(0, 0, -windowDays))

	rows, err := s.store.ActivitySince(ctx, since)
	if err != nil {
		return nil, err
	}

	type cellKey struct{ topic, cohort string }
	sums := make(map[cellKey]int64)
	for _, r := range rows {
		sums[cellKey{r.Topic, r.Cohort}] += r.Count
	}

	out := make([]HeatmapCell, 0, len(sums))
	held := 0
	for key, count := range sums {
		if count < int64(k) {
			held++
			continue
		}
		out = append(out, HeatmapCell{Topic: key.topic, Cohort: key.cohort, Count: count})
	}
	s.suppressed(held)
	return out, nil
}

// TopicVolatility returns day-bucketed volatility contributions, k-gated on
// the underlying observation count rather than the weighted sum.
func (s *Service) TopicVolatility(ctx context.Context, now time.Time, windowDays, minK int) ([]VolatilityRow, error) {
	k := s.effectiveK(minK)
	since := DayBucket(now.AddDate(0, 0, -windowDays))

	rows, err := s.store.VolatilitySince(ctx, since)
	if err != nil {
		return nil, err
	}
	out := make([]VolatilityRow, 0, len(rows))
	held := 0
	for _, r := range rows {
		if r.Count < int64(k) {
			held++
			continue
		}
		out = append(out, r)
	}
	s.suppressed(held)
	return out, nil
}

// WindowImpact returns hour-bucketed activity split by window-active state,
// k-gated.
func (s *Service) WindowImpact(ctx context.Context, now time.Time, windowHours, minK int) ([]WindowRow, error) {
	k := s.effectiveK(minK)
	since := HourBucket(now.Add(-time.Duration(windowHours) * time.Hour))

	rows, err := s.store.WindowSince(ctx, since)
	if err != nil {
		return nil, err
	}
	out := make([]WindowRow, 0, len(rows))
	held := 0
	for _, r := range rows {
		if r.Count < int64(k) {
			held++
			continue
		}
		out = append(out, r)
	}
	s.suppressed(held)
	return out, nil
}
