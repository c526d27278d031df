package bus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"vouch/pkg/platform/sentinel"
)

const publishTimeout = 10 * time.Second

// Kafka is the franz-go backed bus client. One client serves both producing
// and the consumer group session.
type Kafka struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewKafka connects a consumer-group client. topics are the subscriptions;
// group may be empty for a produce-only client.
func NewKafka(brokers []string, group string, topics []string, logger *slog.Logger) (*Kafka, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DisableAutoCommit(),
	}
	if group != "" {
		opts = append(opts, kgo.ConsumerGroup(group))
	}
	if len(topics) > 0 {
		opts = append(opts, kgo.ConsumeTopics(topics...))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Kafka{client: client, logger: logger}, nil
}

// EnsureTopics creates the topics if absent; an already-exists response is
// not an error.
func (k *Kafka) EnsureTopics(ctx context.Context, topics ...string) error {
	adm := kadm.NewClient(k.client)
	resp, err := adm.CreateTopics(ctx, -1, -1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, t := range resp {
		if t.Err != nil && !strings.Contains(t.Err.Error(), "TOPIC_ALREADY_EXISTS") {
			return fmt.Errorf("create topic %s: %w", t.Topic, t.Err)
		}
	}
	return nil
}

// Publish produces one record synchronously with a bounded timeout. Timeouts
// surface as retryable sentinel.ErrUnavailable.
func (k *Kafka) Publish(ctx context.Context, topic, key string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	record := &kgo.Record{Topic: topic, Key: []byte(key), Value: payload}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("publish to %s: %w", topic, sentinel.ErrUnavailable)
		}
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Run polls the subscription and feeds records to the handler, committing
// only after the handler succeeds. Handler errors pause briefly and leave
// the offset uncommitted so the record redelivers; duplicate redeliveries
// are absorbed by the idempotency ledger downstream.
func (k *Kafka) Run(ctx context.Context, handle Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fetches := k.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if k.logger != nil {
				k.logger.ErrorContext(ctx, "fetch error",
					"topic", topic, "partition", partition, "error", err)
			}
		})

		var failed bool
		fetches.EachRecord(func(record *kgo.Record) {
			if failed {
				return
			}
			if err := handle(ctx, record.Topic, record.Key, record.Value); err != nil {
				failed = true
				if k.logger != nil {
					k.logger.ErrorContext(ctx, "record handling failed, will redeliver",
						"topic", record.Topic, "offset", record.Offset, "error", err)
				}
				return
			}
			if err := k.client.CommitRecords(ctx, record); err != nil && k.logger != nil {
				k.logger.WarnContext(ctx, "offset commit failed", "error", err)
			}
		})

		if failed {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}
}

func (k *Kafka) Close() {
	k.client.Close()
}
