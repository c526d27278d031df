package bus

import (
	"context"
	"sync"

	"vouch/pkg/platform/sentinel"
)

// Record is one published message captured by the memory bus.
type Record struct {
	Topic   string
	Key     string
	Payload []byte
}

// MemoryPublisher captures publishes for tests. Failures can be injected to
// exercise the outbox fallback path.
type MemoryPublisher struct {
	mu        sync.Mutex
	published []Record
	failures  int
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// FailNext makes the next n publishes return sentinel.ErrUnavailable.
func (p *MemoryPublisher) FailNext(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = n
}

func (p *MemoryPublisher) Publish(_ context.Context, topic, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failures > 0 {
		p.failures--
		return sentinel.ErrUnavailable
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	p.published = append(p.published, Record{Topic: topic, Key: key, Payload: cp})
	return nil
}

// Published returns a snapshot of captured records.
func (p *MemoryPublisher) Published() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Record, len(p.published))
	copy(out, p.published)
	return out
}
