package domain

import (
	"github.com/google/uuid"

	dErrors "vouch/pkg/domain-errors"
)

// IdentityID identifies an upstream actor. Trust nodes are keyed by
// (IdentityID, Cohort).
//
// Invariant: must be a valid, non-nil UUID. Construct via ParseIdentityID at
// trust boundaries; direct casting bypasses validation.
type IdentityID uuid.UUID

// EventID identifies a domain event globally. The event log's primary key and
// the idempotency ledger both hang off this value.
type EventID uuid.UUID

// Cohort is the coarse grouping attribute of an identity (a generational
// band in the upstream product). It scopes trust nodes and drives the
// same-cohort versus cross-cohort endorsement weighting.
type Cohort string

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

// ParseIdentityID constructs an IdentityID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or nil.
func ParseIdentityID(s string) (IdentityID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return IdentityID(uuid.Nil), err
	}
	return IdentityID(u), nil
}

// ParseEventID constructs an EventID from external input.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EventID(uuid.Nil), err
	}
	return EventID(u), nil
}

// NewEventID mints a fresh event id for events this service emits itself.
func NewEventID() EventID {
	return EventID(uuid.New())
}

func (id IdentityID) String() string { return uuid.UUID(id).String() }
func (id IdentityID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id EventID) String() string { return uuid.UUID(id).String() }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (c Cohort) String() string { return string(c) }

// SameCohort reports whether two cohorts match. Empty cohorts never match
// anything, including each other.
func SameCohort(a, b Cohort) bool {
	return a != "" && a == b
}
