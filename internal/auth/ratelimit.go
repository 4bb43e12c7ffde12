package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
	limiterIdleTTL   = 10 * time.Minute
)

// FailureLimiter throttles clients that keep presenting bad credentials.
// Each client gets a token bucket refilled at rateLimitMaxFail per
// rateLimitWindow; successful requests never consume tokens.
type FailureLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	clients   map[string]*clientLimiter
	now       func() time.Time
	lastPrune time.Time
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewFailureLimiter returns a limiter allowing rateLimitMaxFail failures
// per minute per client.
func NewFailureLimiter() *FailureLimiter {
	return &FailureLimiter{
		limit:   rate.Every(rateLimitWindow / rateLimitMaxFail),
		burst:   rateLimitMaxFail,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Blocked reports whether ip has exhausted its failure budget.
func (f *FailureLimiter) Blocked(ip string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.clients[ip]
	if !ok {
		return false
	}
	return c.lim.TokensAt(f.now()) < 1
}

// RecordFailure charges one failed attempt to ip.
func (f *FailureLimiter) RecordFailure(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	f.prune(now)

	c, ok := f.clients[ip]
	if !ok {
		c = &clientLimiter{lim: rate.NewLimiter(f.limit, f.burst)}
		f.clients[ip] = c
	}
	c.lastSeen = now
	c.lim.AllowN(now, 1)
}

func (f *FailureLimiter) prune(now time.Time) {
	if now.Sub(f.lastPrune) < limiterIdleTTL {
		return
	}
	f.lastPrune = now
	for ip, c := range f.clients {
		if now.Sub(c.lastSeen) > limiterIdleTTL {
			delete(f.clients, ip)
		}
	}
}
