package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/medfinder/internal/domain/providers"
)

type localLease struct {
	token   string
	expires time.Time
}

// LocalLock is an in-process LockProvider for single-instance deployments
type LocalLock struct {
	mu     sync.Mutex
	leases map[string]localLease
	now    func() time.Time
}

// NewLocalLock creates an in-process lock provider
func NewLocalLock() *LocalLock {
	return &LocalLock{leases: make(map[string]localLease), now: time.Now}
}

var _ providers.LockProvider = (*LocalLock)(nil)

// TryAcquire takes the lock if it is free or its lease has expired
func (l *LocalLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, ok := l.leases[key]; ok && now.Before(lease.expires) {
		return "", nil
	}

	token := uuid.New().String()
	l.leases[key] = localLease{token: token, expires: now.Add(ttl)}
	return token, nil
}

// Release frees the lock if token still owns it
func (l *LocalLock) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lease, ok := l.leases[key]; ok && lease.token == token {
		delete(l.leases, key)
	}
	return nil
}
