// Package window derives the "global-event window active" flag. The flag is
// never an in-process singleton: the truth is the most recent window marker in
// the event log, so it survives restarts and horizontal scaling. Redis acts
// only as a read-through projection of the latest marker with a short TTL.
package window

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"vouch/internal/event"
	eventstore "vouch/internal/event/store"
	"vouch/pkg/platform/sentinel"
)

const (
	cacheKey = "vouch:window:marker"
	cacheTTL = 30 * time.Second

	// noMarker is cached when the log holds no marker at all, so an idle
	// deployment does not re-query the log on every event.
	noMarker = "none"
)

type Service struct {
	events eventstore.Store
	cache  *redis.Client // nil when Redis is not configured
	logger *slog.Logger
}

func New(events eventstore.Store, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{events: events, cache: cache, logger: logger}
}

// Active reports whether a window is open right now.
func (s *Service) Active(ctx context.Context) (bool, error) {
	return s.ActiveAt(ctx, time.Now().UTC())
}

// ActiveAt reports whether a window was open at the given instant. The
// consumer passes each event's occurrence time so live ingestion and replay
// derive the identical flag for the same event.
//
// The cache holds the overall latest marker; it answers directly whenever
// that marker does not postdate asOf. Historical instants older than the
// cached marker fall back to a log query.
func (s *Service) ActiveAt(ctx context.Context, asOf time.Time) (bool, error) {
	if s.cache == nil {
		return s.activeFromLog(ctx, asOf)
	}
	if typ, at, ok := s.cachedMarker(ctx); ok {
		return s.resolve(ctx, typ, at, asOf)
	}
	typ, at, err := s.refillCache(ctx)
	if err != nil {
		return false, err
	}
	return s.resolve(ctx, typ, at, asOf)
}

// Invalidate drops the cached projection. The consumer calls this after
// applying a window marker so the next read re-derives from the log.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "window cache invalidation failed", "error", err)
	}
}

// resolve answers asOf against the overall latest marker. An instant the
// marker postdates can only be answered by the log.
func (s *Service) resolve(ctx context.Context, typ string, at time.Time, asOf time.Time) (bool, error) {
	if typ == "" {
		return false, nil // no marker ever stored
	}
	if !at.After(asOf) {
		return typ == string(event.TypeWindowStarted), nil
	}
	return s.activeFromLog(ctx, asOf)
}

// refillCache loads the overall latest marker and stores it. The projection
// must never be filled from a historical query: a mid-window marker cached
// by a late-delivered event would answer instants that postdate a later
// closing marker.
func (s *Service) refillCache(ctx context.Context) (string, time.Time, error) {
	marker, err := s.events.LatestWindowMarker(ctx, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.fillCache(ctx, "", time.Time{})
			return "", time.Time{}, nil
		}
		return "", time.Time{}, fmt.Errorf("latest window marker: %w", err)
	}
	s.fillCache(ctx, string(marker.Type), marker.OccurredAt)
	return string(marker.Type), marker.OccurredAt, nil
}

func (s *Service) activeFromLog(ctx context.Context, asOf time.Time) (bool, error) {
	marker, err := s.events.LatestWindowMarker(ctx, asOf)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("latest window marker: %w", err)
	}
	return marker.Type == event.TypeWindowStarted, nil
}

func (s *Service) cachedMarker(ctx context.Context) (typ string, at time.Time, ok bool) {
	if s.cache == nil {
		return "", time.Time{}, false
	}
	val, err := s.cache.Get(ctx, cacheKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && s.logger != nil {
			s.logger.WarnContext(ctx, "window cache read failed, falling back to event log", "error", err)
		}
		return "", time.Time{}, false
	}
	if val == noMarker {
		return "", time.Time{}, true
	}
	typ, atStr, found := strings.Cut(val, "|")
	if !found {
		return "", time.Time{}, false
	}
	at, err = time.Parse(time.RFC3339Nano, atStr)
	if err != nil {
		return "", time.Time{}, false
	}
	return typ, at, true
}

func (s *Service) fillCache(ctx context.Context, typ string, at time.Time) {
	if s.cache == nil {
		return
	}
	val := noMarker
	if typ != "" {
		val = typ + "|" + at.UTC().Format(time.RFC3339Nano)
	}
	if err := s.cache.Set(ctx, cacheKey, val, cacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "window cache write failed", "error", err)
	}
}
