package handlers

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RateCounter counts hits per key within a fixed window
type RateCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// rateLimiter allows limit requests per key per window. It uses the shared
// counter when one is configured and falls back to process memory when the
// counter is absent or failing.
type rateLimiter struct {
	counter RateCounter
	local   *localRateLimiter
	limit   int
	window  time.Duration
}

func newRateLimiter(counter RateCounter, limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		counter: counter,
		local:   newLocalRateLimiter(),
		limit:   limit,
		window:  window,
	}
}

func (l *rateLimiter) allow(ctx context.Context, key string) (bool, time.Duration) {
	if l.counter != nil {
		count, err := l.counter.Incr(ctx, key, l.window)
		if err == nil {
			return count <= int64(l.limit), l.window
		}
		log.Warn().Err(err).Msg("shared rate limiter unavailable, using local limiter")
	}
	return l.local.allow(key, l.limit, l.window)
}

type localRateLimiter struct {
	mu        sync.Mutex
	states    map[string]*localRateState
	nextSweep time.Time
	now       func() time.Time
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
		now:    time.Now,
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if !now.Before(l.nextSweep) {
		l.sweep(now)
		l.nextSweep = now.Add(window)
	}

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{count: 0, resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := state.resetAt.Sub(now)
		if retryAfter <= 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}

// sweep drops windows that have ended. Caller holds mu.
func (l *localRateLimiter) sweep(now time.Time) {
	for key, state := range l.states {
		if now.After(state.resetAt) {
			delete(l.states, key)
		}
	}
}

// clientIP keys on the connection address. The router's RealIP middleware
// has already rewritten RemoteAddr from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
