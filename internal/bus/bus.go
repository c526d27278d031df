// Package bus wraps the Kafka client. Producers publish with the identity (or
// event id) as the record key so the bus preserves per-key ordering, which
// the consumer's causal-ordering assumption depends on.
package bus

import "context"

// Publisher sends one record to a topic. Implementations must return an
// error rather than buffering silently; the outbox depends on publish
// failures being observable.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// Handler processes one consumed record. Returning an error leaves the
// record uncommitted so the bus redelivers it; the idempotency ledger makes
// the redelivery safe.
type Handler func(ctx context.Context, topic string, key, value []byte) error
