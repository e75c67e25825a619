// Package ratelimit throttles webhook deliveries per registry host.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/zerowrap"
	"golang.org/x/time/rate"

	"github.com/bnema/dockyard/internal/boundaries/out"
)

var _ out.RateLimiter = (*HostLimiter)(nil)

// Config sets the token bucket applied to every key.
type Config struct {
	// RPS is the sustained rate. Zero or less disables limiting.
	RPS   float64
	Burst int

	// IdleTTL drops buckets unused for this long. Zero keeps them forever.
	IdleTTL time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	denied   bool
}

// HostLimiter keeps one token bucket per key in memory.
type HostLimiter struct {
	buckets map[string]*bucket
	mu      sync.Mutex
	cfg     Config
	log     zerowrap.Logger
	nowFn   func() time.Time
}

// NewHostLimiter creates an in-memory limiter.
func NewHostLimiter(cfg Config, log zerowrap.Logger) *HostLimiter {
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &HostLimiter{
		buckets: make(map[string]*bucket),
		cfg:     cfg,
		log:     log,
		nowFn:   time.Now,
	}
}

// Allow reports whether one request for key may proceed now.
func (l *HostLimiter) Allow(ctx context.Context, key string) bool {
	return l.AllowN(ctx, key, 1)
}

// AllowN reports whether n requests for key may proceed now.
func (l *HostLimiter) AllowN(_ context.Context, key string, n int) bool {
	if l.cfg.RPS <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, n)
	if !allowed && !b.denied {
		l.log.Warn().
			Str(zerowrap.FieldLayer, "adapter").
			Str(zerowrap.FieldAdapter, "ratelimit").
			Str("key", key).
			Msg("rate limit exceeded")
	}
	b.denied = !allowed
	return allowed
}

// Sweep drops buckets idle for longer than the configured TTL and returns
// how many were removed.
func (l *HostLimiter) Sweep() int {
	if l.cfg.IdleTTL <= 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.nowFn().Add(-l.cfg.IdleTTL)
	removed := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle buckets every interval until ctx is done.
func (l *HostLimiter) Run(ctx context.Context, interval time.Duration) {
	if l.cfg.IdleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Len returns the number of tracked keys.
func (l *HostLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
