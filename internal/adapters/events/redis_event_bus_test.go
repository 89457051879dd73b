package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medfinder/internal/adapters/events"
	"github.com/zatekoja/medfinder/internal/domain/entities"
	"github.com/zatekoja/medfinder/internal/domain/providers"
	redisclient "github.com/zatekoja/medfinder/internal/infrastructure/clients/redis"
)

func TestRedisEventBus_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, providers.EventChannelPharmacyUpdates)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	bus := events.NewRedisEventBus(redisclient.NewFromRedis(rdb))
	event := entities.NewPharmacyEvent(entities.PharmacyEventProvisioned, &entities.Pharmacy{
		ID: "ph-1", OwnerID: "acct-1", City: "Yaba", State: "Lagos",
	})
	require.NoError(t, bus.Publish(ctx, providers.EventChannelPharmacyUpdates, event))

	select {
	case msg := <-sub.Channel():
		var got entities.PharmacyEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, entities.PharmacyEventProvisioned, got.Type)
		assert.Equal(t, "ph-1", got.PharmacyID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestRedisEventBus_PublishFailsWhenServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	bus := events.NewRedisEventBus(redisclient.NewFromRedis(rdb))
	err := bus.Publish(context.Background(), "region:Lagos", &entities.PharmacyEvent{ID: "evt-1"})
	assert.Error(t, err)
}
