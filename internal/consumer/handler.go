package consumer

import (
	"context"
	"log/slog"

	"vouch/internal/bus"
	"vouch/internal/event"
)

// Handler adapts the pipeline to the bus consumer loop. Malformed records are
// logged and dropped; a record that fails to decode will never decode, so
// holding the offset would only wedge the partition.
func Handler(p *Pipeline, logger *slog.Logger) bus.Handler {
	return func(ctx context.Context, topic string, key, value []byte) error {
		env, err := event.Decode(value)
		if err != nil {
			logger.Warn("dropping malformed event record",
				"topic", topic, "key", string(key), "error", err)
			return nil
		}
		return p.Apply(ctx, env)
	}
}
