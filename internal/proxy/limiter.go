package proxy

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimit is a token bucket configuration applied per route prefix.
// A zero RequestsPerSecond disables limiting.
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// Enabled reports whether the limit should be enforced.
func (c RateLimit) Enabled() bool {
	return c.RequestsPerSecond > 0
}

// Limiter holds one token bucket per route prefix. It outlives individual
// handlers so buckets survive route reloads.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewLimiter creates an empty Limiter.
func NewLimiter() *Limiter {
	return &Limiter{limiters: make(map[string]*rate.Limiter)}
}

// Allow reports whether a request for key may proceed under cfg.
func (l *Limiter) Allow(key string, cfg RateLimit) bool {
	if !cfg.Enabled() {
		return true
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	l.mu.RLock()
	lim, ok := l.limiters[key]
	l.mu.RUnlock()

	if !ok {
		l.mu.Lock()
		lim, ok = l.limiters[key]
		if !ok {
			lim = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
			l.limiters[key] = lim
		}
		l.mu.Unlock()
	}

	if lim.Limit() != rate.Limit(cfg.RequestsPerSecond) {
		lim.SetLimit(rate.Limit(cfg.RequestsPerSecond))
	}
	if lim.Burst() != burst {
		lim.SetBurst(burst)
	}

	return lim.Allow()
}

// Retain drops buckets whose key is not in keep.
func (l *Limiter) Retain(keep []string) {
	set := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		set[k] = struct{}{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for k := range l.limiters {
		if _, ok := set[k]; !ok {
			delete(l.limiters, k)
		}
	}
}
