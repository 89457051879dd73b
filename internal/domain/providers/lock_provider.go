package providers

import (
	"context"
	"time"
)

// LockProvider hands out short-lived, per-key mutual exclusion across
// API instances.
type LockProvider interface {
	// TryAcquire attempts to take the lock without waiting. It returns a
	// non-empty token when acquired and "" when another holder has it.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Release frees the lock only if token still owns it
	Release(ctx context.Context, key, token string) error
}
