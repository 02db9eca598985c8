/*
PURPOSE:
  Per-client rate limiting for the estimate endpoint.

REQUIREMENTS:
  User-specified:
  - Each client IP gets server.rate_limit requests per server.rate_window.

  Implementation-discovered:
  - Every estimate is a paid upstream call, so a burst of rate_limit is
    allowed and then tokens come back evenly over the window.
  - Idle clients must not pin memory forever.

ARCHITECTURE INTEGRATION:
  - Called by: internal/server/middleware.go
  - Uses: golang.org/x/time/rate

ERROR HANDLING:
  - None. Allow only answers yes or no.

IMPLEMENTATION RULES:
  - One rate.Limiter per client, guarded by a mutex.
  - A cleanup goroutine drops clients idle longer than bucketCleanupThreshold.
    Stop() ends it.

USAGE:
  rl := server.NewRateLimiter(5, time.Minute)
  defer rl.Stop()
  if !rl.Allow(ip) { ... 429 ... }

SELF-HEALING INSTRUCTIONS:
  - If clients sit behind a proxy, key on the forwarded address instead.

RELATED FILES:
  - internal/server/middleware.go

MAINTENANCE:
  - None.
*/

package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	bucketCleanupThreshold = 1 * time.Hour
	cleanupInterval        = 30 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands each client its own token bucket.
type RateLimiter struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	clients     map[string]*visitor
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewRateLimiter allows capacity requests per window for each client.
// Call Stop when done.
func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	limit := rate.Limit(0)
	if capacity > 0 && window > 0 {
		limit = rate.Every(window / time.Duration(capacity))
	}
	rl := &RateLimiter{
		limit:       limit,
		burst:       capacity,
		clients:     make(map[string]*visitor),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, v := range rl.clients {
		if now.Sub(v.lastSeen) > bucketCleanupThreshold {
			delete(rl.clients, ip)
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// Allow consumes one token for client and reports whether it had one.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.clients[client]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[client] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// size returns the number of tracked clients.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}
