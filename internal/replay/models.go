// Package replay rebuilds derived trust state from the event log. A run is an
// explicit two-phase state machine — discard, then sequential re-apply — with
// a durable run record as the mutual-exclusion lock and the crash-recovery
// marker: an interrupted run is visible in the table and a fresh run
// supersedes it rather than trusting half-applied state.
package replay

import (
	"time"

	"github.com/google/uuid"

	"vouch/pkg/domain"
)

type Status string

const (
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSuperseded Status = "superseded"
)

// Run is the durable record of one recompute. At most one run may hold
// StatusRunning at a time; the store's uniqueness guarantee on that status is
// the lock.
type Run struct {
	ID             uuid.UUID
	Scope          domain.Cohort // empty means the full log
	DryRun         bool
	Status         Status
	StartedAt      time.Time
	CompletedAt    time.Time // zero until terminal
	EventsReplayed int
	LastError      string
}

// ScopeAll is the wire value for an unscoped run in the emitted
// trust.recomputed payload.
const ScopeAll = "all"

func (r Run) ScopeLabel() string {
	if r.Scope == "" {
		return ScopeAll
	}
	return string(r.Scope)
}
