// Package ratelimit provides a keyed token-bucket rate limiter. Each
// key (a client IP, an account email) gets an independent limiter.
// Used to slow credential-guessing against the login endpoint.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// entry pairs a limiter with its last access so idle keys can be
// reclaimed.
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a keyed rate limiter allowing rps requests per second
// with the given burst per key. Idle keys are reclaimed in the
// background.
func New(rps float64, burst int) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}

	go krl.cleanup()

	return krl
}

// Allow reports whether a request for the key may proceed right now.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.get(key).Allow()
}

// Wait blocks until a request for the key is allowed or ctx is done.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.get(key).Wait(ctx)
}

func (krl *KeyedRateLimiter) get(key string) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	e, ok := krl.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.entries[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// Stop shuts down the cleanup goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

// cleanup drops keys idle for over an hour. A reclaimed key simply
// starts with a fresh bucket on its next request.
func (krl *KeyedRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case now := <-ticker.C:
			krl.mu.Lock()
			for key, e := range krl.entries {
				if now.Sub(e.lastSeen) > time.Hour {
					delete(krl.entries, key)
				}
			}
			krl.mu.Unlock()
		}
	}
}
