// Package service is the weighting and state mutator: it maps recognized
// events to signed score deltas, updates the trust node for the affected
// (identity, cohort) pair, appends the credibility history entry, and derives
// the volatility index from the last two observations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"vouch/internal/event"
	"vouch/internal/trust/models"
	"vouch/internal/trust/store/history"
	"vouch/internal/trust/store/node"
	"vouch/pkg/domain"
	"vouch/pkg/platform/sentinel"
)

type Service struct {
	nodes   node.Store
	history history.Store
	weights *WeightSet
	logger  *slog.Logger

	// scope, when set, restricts mutations to targets in that cohort.
	// Only ever set on the copy a cohort-scoped replay runs with.
	scope domain.Cohort
}

func New(nodes node.Store, hist history.Store, weights *WeightSet, logger *slog.Logger) *Service {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Service{nodes: nodes, history: hist, weights: weights, logger: logger}
}

// Scoped returns a copy of the service that only mutates nodes in the given
// cohort. The scope applies to the mutation target, not the acting identity:
// a cross-cohort endorsement lands on the target's cohort, so scoping by
// actor would rebuild the wrong set of nodes.
func (s *Service) Scoped(cohort domain.Cohort) *Service {
	c := *s
	c.scope = cohort
	return &c
}

// WithStores returns a copy of the service writing to the given stores.
// Dry-run replay uses this to rebuild state into scratch memory stores while
// keeping the same rule set.
func (s *Service) WithStores(nodes node.Store, hist history.Store) *Service {
	c := *s
	c.nodes = nodes
	c.history = hist
	return &c
}

// target is the (identity, cohort) pair an event's delta lands on, plus the
// endorsement-counter bucket when the event is an endorsement.
type target struct {
	identity domain.IdentityID
	cohort   domain.Cohort
	signal   Signal
	counter  Signal // zero unless the signal is an endorsement
	cross    bool   // delta originated from cross-cohort interaction
}

// Apply mutates trust state for one recognized event. windowActive is the
// durable global-event flag at the moment of application. Returns false when
// the event produces no mutation (unrecognized type, window markers, missing
// identity), which is a no-op rather than an error.
func (s *Service) Apply(ctx context.Context, env event.Envelope, windowActive bool) (bool, error) {
	tgt, ok := s.resolve(ctx, env, windowActive)
	if !ok {
		return false, nil
	}
	if s.scope != "" && !domain.SameCohort(tgt.cohort, s.scope) {
		return false, nil
	}

	delta := s.weights.Weight(tgt.signal)

	n, err := s.nodes.Get(ctx, tgt.identity, tgt.cohort)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return false, fmt.Errorf("load node: %w", err)
		}
		n = &models.Node{IdentityID: tgt.identity, Cohort: tgt.cohort}
	}

	n.Score = saturate(n.Score + delta)
	if tgt.cross {
		n.CrossCohortDelta += delta
	}
	switch tgt.counter {
	case SignalEndorseSame:
		n.SameCount++
	case SignalEndorseCross:
		n.CrossCount++
	case SignalEndorseCrossWindow:
		n.CrossEventCount++
	}
	n.RecomputeQualityRatio()
	n.AlgoVersion = s.weights.Version
	// Derived purely from the event so replay reproduces live state
	// bit-for-bit; wall-clock time must not leak into derived columns.
	n.ComputedAt = env.OccurredAt

	entry := models.HistoryEntry{
		IdentityID: tgt.identity,
		Cohort:     tgt.cohort,
		Metric:     models.MetricCredibility,
		Value:      n.Score,
		RecordedAt: env.OccurredAt,
	}

	// Volatility reads the previous observation before this one is appended.
	prev, err := s.history.Latest(ctx, tgt.identity, tgt.cohort, models.MetricCredibility)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		n.Volatility = 0
	case err != nil:
		return false, fmt.Errorf("latest history: %w", err)
	default:
		n.Volatility = math.Abs(n.Score - prev.Value)
	}

	if err := s.history.Append(ctx, entry); err != nil {
		return false, fmt.Errorf("append history: %w", err)
	}
	if err := s.nodes.Upsert(ctx, n); err != nil {
		return false, fmt.Errorf("upsert node: %w", err)
	}
	return true, nil
}

// resolve maps an envelope to its mutation target. The handler map defaults
// to "no mutation" for anything it does not recognize.
func (s *Service) resolve(ctx context.Context, env event.Envelope, windowActive bool) (target, bool) {
	switch env.Type {
	case event.TypePostCreated:
		return s.actorTarget(env, SignalPostCreated)
	case event.TypeReplyCreated:
		return s.actorTarget(env, SignalReplyCreated)
	case event.TypeCredentialEarned:
		return s.actorTarget(env, SignalCredentialEarned)
	case event.TypeCredentialSpent:
		return s.actorTarget(env, SignalCredentialSpent)
	case event.TypeSafetyEnforced:
		return s.actorTarget(env, SignalSafetyEnforced)
	case event.TypeEndorsementGiven:
		return s.endorsementTarget(ctx, env, windowActive)
	case event.TypeAnnotationCreated:
		return s.annotationTarget(env, SignalAnnotationCreated)
	case event.TypeAnnotationFeatured:
		return s.featuredTarget(env)
	case event.TypeAnnotationDeprecated:
		return s.annotationTarget(env, SignalAnnotationDeprecated)
	default:
		// Window markers and unrecognized types carry no score effect.
		return target{}, false
	}
}

func (s *Service) actorTarget(env event.Envelope, sig Signal) (target, bool) {
	if !env.HasActor() {
		s.skip(env, "missing actor or cohort")
		return target{}, false
	}
	return target{identity: env.ActorID, cohort: env.ActorCohort, signal: sig}, true
}

// endorsementTarget attributes the delta to the endorsement's target, not the
// endorsing actor, and picks the counter bucket from the cohort relationship.
func (s *Service) endorsementTarget(_ context.Context, env event.Envelope, windowActive bool) (target, bool) {
	p, err := env.DecodeEndorsement()
	if err != nil || p.TargetID == "" || p.TargetCohort == "" {
		s.skip(env, "endorsement missing target")
		return target{}, false
	}
	if env.ActorCohort == "" {
		s.skip(env, "endorsement missing actor cohort")
		return target{}, false
	}
	targetID, err := domain.ParseIdentityID(p.TargetID)
	if err != nil {
		s.skip(env, "endorsement target id invalid")
		return target{}, false
	}

	targetCohort := domain.Cohort(p.TargetCohort)
	sig := SignalEndorseSame
	cross := false
	if !domain.SameCohort(env.ActorCohort, targetCohort) {
		cross = true
		sig = SignalEndorseCross
		if windowActive {
			sig = SignalEndorseCrossWindow
		}
	}
	return target{identity: targetID, cohort: targetCohort, signal: sig, counter: sig, cross: cross}, true
}

// annotationTarget prefers the payload's author attribution over the
// envelope actor.
func (s *Service) annotationTarget(env event.Envelope, sig Signal) (target, bool) {
	identity, cohort, ok := s.annotationAuthor(env)
	if !ok {
		return target{}, false
	}
	return target{identity: identity, cohort: cohort, signal: sig}, true
}

// featuredTarget weighs a featured annotation higher when the featuring actor
// and the annotation's author sit in different cohorts.
func (s *Service) featuredTarget(env event.Envelope) (target, bool) {
	identity, cohort, ok := s.annotationAuthor(env)
	if !ok {
		return target{}, false
	}
	sig := SignalAnnotationFeatured
	cross := false
	if env.ActorCohort != "" && !domain.SameCohort(env.ActorCohort, cohort) {
		sig = SignalAnnotationFeaturedX
		cross = true
	}
	return target{identity: identity, cohort: cohort, signal: sig, cross: cross}, true
}

func (s *Service) annotationAuthor(env event.Envelope) (domain.IdentityID, domain.Cohort, bool) {
	p := env.DecodeAnnotation()
	if p.AuthorID != "" {
		author, err := domain.ParseIdentityID(p.AuthorID)
		if err != nil {
			s.skip(env, "annotation author id invalid")
			return domain.IdentityID{}, "", false
		}
		cohort := domain.Cohort(p.AuthorCohort)
		if cohort == "" {
			cohort = env.ActorCohort
		}
		if cohort == "" {
			s.skip(env, "annotation author cohort unknown")
			return domain.IdentityID{}, "", false
		}
		return author, cohort, true
	}
	if !env.HasActor() {
		s.skip(env, "missing actor or cohort")
		return domain.IdentityID{}, "", false
	}
	return env.ActorID, env.ActorCohort, true
}

func (s *Service) skip(env event.Envelope, reason string) {
	if s.logger != nil {
		s.logger.Debug("event skipped for state mutation",
			"event_id", env.ID.String(),
			"event_type", string(env.Type),
			"reason", reason,
		)
	}
}

// Version exposes the active rule set version for API responses and the
// recompute report.
func (s *Service) Version() string {
	return s.weights.Version
}

// recentHistoryLimit bounds the per-cohort history slice in the identity
// view; volatility only ever needs two entries, the rest is for stewards
// eyeballing a trajectory.
const recentHistoryLimit = 20

// IdentityView is the steward-facing read: every cohort node for an identity
// plus its recent history.
type IdentityView struct {
	Nodes   []*models.Node
	History []models.HistoryEntry
}

// View returns all cohort nodes for an identity with recent history, or
// sentinel.ErrNotFound when the identity has none.
func (s *Service) View(ctx context.Context, identity domain.IdentityID) (IdentityView, error) {
	nodes, err := s.nodes.ListByIdentity(ctx, identity)
	if err != nil {
		return IdentityView{}, fmt.Errorf("list nodes: %w", err)
	}
	if len(nodes) == 0 {
		return IdentityView{}, sentinel.ErrNotFound
	}

	view := IdentityView{Nodes: nodes}
	for _, n := range nodes {
		entries, err := s.history.Recent(ctx, identity, n.Cohort, recentHistoryLimit)
		if err != nil {
			return IdentityView{}, fmt.Errorf("recent history: %w", err)
		}
		view.History = append(view.History, entries...)
	}
	return view, nil
}

// Volatile returns nodes whose volatility exceeds the threshold, most
// volatile first.
func (s *Service) Volatile(ctx context.Context, threshold float64) ([]*models.Node, error) {
	return s.nodes.ListVolatile(ctx, threshold)
}

// Scores returns the current credibility score per identity, summed across
// cohorts. Identities with no nodes are absent from the map.
func (s *Service) Scores(ctx context.Context, ids []domain.IdentityID) (map[domain.IdentityID]float64, error) {
	return s.nodes.Scores(ctx, ids)
}
