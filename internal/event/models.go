// Package event defines the domain event envelope consumed from the platform
// bus and the payload shapes this service understands. The raw event log is
// the source of truth for every derived table; envelopes are immutable once
// stored.
package event

import (
	"encoding/json"
	"time"

	"vouch/pkg/domain"
)

// Type tags a domain event. Unrecognized types are stored for audit and
// otherwise ignored.
type Type string

const (
	TypePostCreated          Type = "post.created"
	TypeReplyCreated         Type = "reply.created"
	TypeEndorsementGiven     Type = "endorsement.given"
	TypeCredentialEarned     Type = "credential.earned"
	TypeCredentialSpent      Type = "credential.spent"
	TypeSafetyEnforced       Type = "safety.enforced"
	TypeAnnotationCreated    Type = "annotation.created"
	TypeAnnotationFeatured   Type = "annotation.featured"
	TypeAnnotationDeprecated Type = "annotation.deprecated"
	TypeWindowStarted        Type = "window.started"
	TypeWindowEnded          Type = "window.ended"

	// TypeTrustRecomputed is emitted by this service after a replay run.
	TypeTrustRecomputed Type = "trust.recomputed"
)

var recognized = map[Type]bool{
	TypePostCreated:          true,
	TypeReplyCreated:         true,
	TypeEndorsementGiven:     true,
	TypeCredentialEarned:     true,
	TypeCredentialSpent:      true,
	TypeSafetyEnforced:       true,
	TypeAnnotationCreated:    true,
	TypeAnnotationFeatured:   true,
	TypeAnnotationDeprecated: true,
	TypeWindowStarted:        true,
	TypeWindowEnded:          true,
	TypeTrustRecomputed:      true,
}

// Recognized reports whether this service knows how to weight the type.
func (t Type) Recognized() bool {
	return recognized[t]
}

// IsWindowMarker reports whether the type flips the global-event window flag.
func (t Type) IsWindowMarker() bool {
	return t == TypeWindowStarted || t == TypeWindowEnded
}

// Envelope is one ingested domain event. ActorID and ActorCohort may be
// absent; such events are retained in the log but never mutate derived state.
type Envelope struct {
	ID            domain.EventID
	Type          Type
	ActorID       domain.IdentityID
	ActorCohort   domain.Cohort
	OccurredAt    time.Time
	CorrelationID string
	Payload       json.RawMessage
}

// HasActor reports whether the envelope carries enough identity to key a
// trust node.
func (e Envelope) HasActor() bool {
	return !e.ActorID.IsNil() && e.ActorCohort != ""
}

// EndorsementPayload is carried by endorsement.given. The target receives the
// score delta and the counter increment, not the endorsing actor.
type EndorsementPayload struct {
	TargetID     string `json:"target_id"`
	TargetCohort string `json:"target_cohort"`
	Topic        string `json:"topic,omitempty"`
}

// ContentPayload is carried by post.created and reply.created.
type ContentPayload struct {
	Topic string `json:"topic,omitempty"`
}

// AnnotationPayload is carried by annotation lifecycle events. When AuthorID
// is set the delta is attributed to the annotation's author rather than the
// envelope actor.
type AnnotationPayload struct {
	AuthorID     string `json:"author_id,omitempty"`
	AuthorCohort string `json:"author_cohort,omitempty"`
}

// RecomputedPayload is the body of the trust.recomputed lifecycle event.
type RecomputedPayload struct {
	Scope  string `json:"scope"`
	DryRun bool   `json:"dry_run"`
}

// DecodeEndorsement parses the endorsement payload from an envelope.
func (e Envelope) DecodeEndorsement() (EndorsementPayload, error) {
	var p EndorsementPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// DecodeContent parses the content payload; an empty or invalid payload
// yields the zero value since the topic is optional.
func (e Envelope) DecodeContent() ContentPayload {
	var p ContentPayload
	if len(e.Payload) > 0 {
		_ = json.Unmarshal(e.Payload, &p)
	}
	return p
}

// DecodeAnnotation parses the annotation payload; attribution fields are
// optional.
func (e Envelope) DecodeAnnotation() AnnotationPayload {
	var p AnnotationPayload
	if len(e.Payload) > 0 {
		_ = json.Unmarshal(e.Payload, &p)
	}
	return p
}
