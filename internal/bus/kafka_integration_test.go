//go:build integration

package bus_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vouch/internal/bus"
	"vouch/pkg/testutil/containers"
)

type RedpandaBusSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestRedpandaBusSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedpandaBusSuite))
}

func (s *RedpandaBusSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())
}

func (s *RedpandaBusSuite) newClient(group string, topics ...string) *bus.Kafka {
	k, err := bus.NewKafka(s.redpanda.Brokers, group, topics, nil)
	s.Require().NoError(err)
	return k
}

// consume runs the client's poll loop in the background and returns a stop
// function that cancels it and waits for the loop to exit.
func (s *RedpandaBusSuite) consume(k *bus.Kafka, handle bus.Handler) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = k.Run(ctx, handle)
	}()
	return func() {
		cancel()
		<-done
	}
}

type delivery struct {
	topic string
	key   string
	value string
}

func (s *RedpandaBusSuite) TestPublishConsumeRoundTrip() {
	topic := "roundtrip-" + uuid.NewString()
	group := "group-" + uuid.NewString()
	ctx := context.Background()

	consumer := s.newClient(group, topic)
	defer consumer.Close()
	s.Require().NoError(consumer.EnsureTopics(ctx, topic))

	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("id-%d", i)
		s.Require().NoError(consumer.Publish(ctx, topic, key, []byte(fmt.Sprintf("payload-%d", i))))
	}

	got := make(chan delivery, 3)
	stop := s.consume(consumer, func(ctx context.Context, topic string, key, value []byte) error {
		got <- delivery{topic: topic, key: string(key), value: string(value)}
		return nil
	})
	defer stop()

	seen := map[string]delivery{}
	for len(seen) < 3 {
		select {
		case d := <-got:
			s.Equal(topic, d.topic)
			seen[d.key] = d
		case <-time.After(15 * time.Second):
			s.FailNow("timed out waiting for deliveries", "got %d of 3", len(seen))
		}
	}
	s.Equal("payload-1", seen["id-1"].value)
}

// TestFailedRecordRedeliversAfterRestart verifies commit-after-success: a
// record whose handler errored is seen again by the next consumer in the
// group, while a handled record is not.
func (s *RedpandaBusSuite) TestFailedRecordRedeliversAfterRestart() {
	topic := "redeliver-" + uuid.NewString()
	group := "group-" + uuid.NewString()
	ctx := context.Background()

	first := s.newClient(group, topic)
	s.Require().NoError(first.EnsureTopics(ctx, topic))
	s.Require().NoError(first.Publish(ctx, topic, "evt-1", []byte("attempt")))

	received := make(chan string, 1)
	stop := s.consume(first, func(ctx context.Context, _ string, key, _ []byte) error {
		received <- string(key)
		return fmt.Errorf("simulated handler failure")
	})
	select {
	case key := <-received:
		s.Equal("evt-1", key)
	case <-time.After(15 * time.Second):
		s.FailNow("timed out waiting for first delivery")
	}
	stop()
	first.Close()

	// The offset was never committed, so a fresh group member starts over.
	second := s.newClient(group, topic)
	redelivered := make(chan string, 1)
	stop = s.consume(second, func(ctx context.Context, _ string, key, _ []byte) error {
		redelivered <- string(key)
		return nil
	})
	select {
	case key := <-redelivered:
		s.Equal("evt-1", key)
	case <-time.After(15 * time.Second):
		s.FailNow("timed out waiting for redelivery")
	}
	stop()
	second.Close()

	// Handled and committed; a third member sees nothing.
	third := s.newClient(group, topic)
	defer third.Close()
	unexpected := make(chan string, 1)
	stop = s.consume(third, func(ctx context.Context, _ string, key, _ []byte) error {
		unexpected <- string(key)
		return nil
	})
	defer stop()
	select {
	case key := <-unexpected:
		s.FailNow("record delivered after commit", "key %s", key)
	case <-time.After(3 * time.Second):
	}
}
