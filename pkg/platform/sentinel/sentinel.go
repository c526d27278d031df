package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrDuplicate: unique constraint hit; the row already exists
// - ErrConflict: concurrent modification lost the race
// - ErrReplayActive: a recompute run already holds the replay lock
// - ErrUnavailable: service or resource temporarily unavailable; safe to retry
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate")
	ErrConflict     = errors.New("conflict")
	ErrReplayActive = errors.New("replay active")
	ErrUnavailable  = errors.New("unavailable")
)
