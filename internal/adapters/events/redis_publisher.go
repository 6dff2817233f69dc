package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"trip-dispatch-service/internal/ports"
)

// RedisPublisher broadcasts policy events over a Redis pub/sub channel.
// Publishing is fire-and-forget: failures are logged and never block or
// propagate into core logic.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(_ context.Context, event ports.PolicyEvent) {
	raw, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("marshal policy event")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
			log.Warn().Err(err).Str("channel", p.channel).Msg("policy event publish failed")
		}
	}()
}

// NopPublisher drops all events. Used when no observer channel is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ports.PolicyEvent) {}
