package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/zatekoja/medfinder/internal/domain/providers"
	redisclient "github.com/zatekoja/medfinder/internal/infrastructure/clients/redis"
)

const lockKeyPrefix = "lock:"

// releaseScript deletes the key only when it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock implements LockProvider with SET NX PX
type RedisLock struct {
	client *redisclient.Client
}

// NewRedisLock creates a new Redis-backed lock provider
func NewRedisLock(client *redisclient.Client) *RedisLock {
	return &RedisLock{client: client}
}

var _ providers.LockProvider = (*RedisLock)(nil)

// TryAcquire takes the lock if nobody holds it
func (l *RedisLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.New().String()
	ok, err := l.client.Client().SetNX(ctx, lockKeyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Release frees the lock if token still owns it. An expired or stolen lock is not an error.
func (l *RedisLock) Release(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	err := releaseScript.Run(ctx, l.client.Client(), []string{lockKeyPrefix + key}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
