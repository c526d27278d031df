package event

import (
	"encoding/json"
	"time"

	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// wireEnvelope is the bus wire format. Producers are external; field names are
// part of the platform contract and must not change.
type wireEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	ActorID       *string         `json:"actor_id"`
	ActorCohort   *string         `json:"actor_cohort"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID *string         `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
}

// Decode parses a bus record into an Envelope.
//
// A missing or malformed event_id, event_type, or occurred_at is a hard
// decode error: without them the event cannot even be logged for audit.
// A missing actor or cohort is not an error; the envelope is returned with
// the zero actor and the consumer stores it without mutating state.
func Decode(raw []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return Envelope{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed event envelope")
	}

	id, err := domain.ParseEventID(w.EventID)
	if err != nil {
		return Envelope{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "event_id")
	}
	if w.EventType == "" {
		return Envelope{}, dErrors.New(dErrors.CodeInvalidInput, "event_type is required")
	}
	if w.OccurredAt.IsZero() {
		return Envelope{}, dErrors.New(dErrors.CodeInvalidInput, "occurred_at is required")
	}

	env := Envelope{
		ID:         id,
		Type:       Type(w.EventType),
		OccurredAt: w.OccurredAt.UTC(),
		Payload:    w.Payload,
	}
	if w.ActorID != nil && *w.ActorID != "" {
		// A malformed actor id degrades to "no actor" rather than rejecting
		// the event; the log keeps it for audit either way.
		if actor, err := domain.ParseIdentityID(*w.ActorID); err == nil {
			env.ActorID = actor
		}
	}
	if w.ActorCohort != nil {
		env.ActorCohort = domain.Cohort(*w.ActorCohort)
	}
	if w.CorrelationID != nil {
		env.CorrelationID = *w.CorrelationID
	}
	return env, nil
}

// Encode renders an Envelope in the bus wire format. Used for events this
// service emits and by tests that feed the consumer.
func Encode(env Envelope) ([]byte, error) {
	w := wireEnvelope{
		EventID:    env.ID.String(),
		EventType:  string(env.Type),
		OccurredAt: env.OccurredAt.UTC(),
		Payload:    env.Payload,
	}
	if !env.ActorID.IsNil() {
		s := env.ActorID.String()
		w.ActorID = &s
	}
	if env.ActorCohort != "" {
		s := string(env.ActorCohort)
		w.ActorCohort = &s
	}
	if env.CorrelationID != "" {
		w.CorrelationID = &env.CorrelationID
	}
	return json.Marshal(w)
}
