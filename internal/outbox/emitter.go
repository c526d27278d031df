package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vouch/internal/bus"
	"vouch/internal/event"
)

// Emitter publishes this service's own lifecycle events. A failed synchronous
// publish is never dropped: the encoded record lands in the outbox and the
// sweeper delivers it later.
type Emitter struct {
	publisher bus.Publisher
	store     Store
	topic     string
	logger    *slog.Logger
}

func NewEmitter(publisher bus.Publisher, store Store, topic string, logger *slog.Logger) *Emitter {
	return &Emitter{publisher: publisher, store: store, topic: topic, logger: logger}
}

// Emit encodes and publishes the envelope. When the sync publish fails the
// entry is persisted within the ambient transaction, so an event emitted
// from inside a replay commit cannot be lost even if both the bus and the
// process die immediately after.
func (e *Emitter) Emit(ctx context.Context, env event.Envelope) error {
	payload, err := event.Encode(env)
	if err != nil {
		return fmt.Errorf("encode emitted event: %w", err)
	}

	if err := e.publisher.Publish(ctx, e.topic, env.ID.String(), payload); err == nil {
		return nil
	} else if e.logger != nil {
		e.logger.WarnContext(ctx, "synchronous publish failed, queueing to outbox",
			"event_id", env.ID.String(), "topic", e.topic, "error", err)
	}

	now := time.Now().UTC()
	entry := Entry{
		ID:            uuid.New(),
		Topic:         e.topic,
		Key:           env.ID.String(),
		Payload:       payload,
		Attempts:      0,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if err := e.store.Add(ctx, entry); err != nil {
		return fmt.Errorf("queue outbox entry: %w", err)
	}
	return nil
}
