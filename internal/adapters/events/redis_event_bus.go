package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/providers"
	redisclient "github.com/zatekoja/medfinder/internal/infrastructure/clients/redis"
)

// RedisEventBus implements the EventBus interface using Redis Pub/Sub
type RedisEventBus struct {
	client *redisclient.Client
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) *RedisEventBus {
	return &RedisEventBus{client: client}
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.PharmacyEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	receivers, err := b.client.Client().Publish(ctx, channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Int64("receivers", receivers).
		Msg("published event")
	return nil
}

// Close is a no-op; the Redis client is owned by the caller
func (b *RedisEventBus) Close() error {
	return nil
}

// NoopEventBus drops every event. Used when Redis is disabled.
type NoopEventBus struct{}

// Publish discards the event
func (NoopEventBus) Publish(ctx context.Context, channel string, event *entities.PharmacyEvent) error {
	return nil
}

// Close does nothing
func (NoopEventBus) Close() error { return nil }
