// Package outbox guarantees at-least-once delivery of events this service
// emits. A publish that fails synchronously is persisted here and retried by
// the sweeper until it lands; downstream consumers absorb the resulting
// duplicates the same way this service's own consumer does.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one derived event pending delivery.
type Entry struct {
	ID            uuid.UUID
	Topic         string
	Key           string
	Payload       []byte
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
}

// Retry backoff: base doubles per attempt, capped so a long outage does not
// push entries days into the future.
const (
	backoffBase = 30 * time.Second
	backoffCap  = time.Hour
)

// NextBackoff returns the delay before the given (1-based) attempt retries.
func NextBackoff(attempts int) time.Duration {
	d := backoffBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= backoffCap {
			return backoffCap
		}
	}
	return d
}
