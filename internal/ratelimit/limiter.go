package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config describes one named fixed-window bucket.
type Config struct {
	MaxRequests int
	Window      time.Duration
	Bucket      string
}

// Result is the outcome of a single rate-limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window request counter keyed by identifier and bucket
// name. Counters live in process memory only: in a horizontally scaled
// deployment each instance keeps its own counts, so the effective limit is
// maxRequests times the instance count. That is a known limitation of the
// current deployment, not something this type tries to hide.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New returns an empty Limiter.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check counts one request for identifier against cfg's bucket. The first
// request in a window creates the entry with count 1; once the stored window
// has expired the next request starts a fresh one regardless of prior denials.
func (l *Limiter) Check(identifier string, cfg Config) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := identifier + ":" + cfg.Bucket

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &entry{count: 1, resetAt: now.Add(cfg.Window)}
		l.entries[key] = e
		return Result{Allowed: true, Remaining: cfg.MaxRequests - 1, ResetAt: e.resetAt}
	}

	e.count++
	remaining := cfg.MaxRequests - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   e.count <= cfg.MaxRequests,
		Remaining: remaining,
		ResetAt:   e.resetAt,
	}
}

// Sweep drops expired entries to bound memory growth.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
		}
	}
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
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
	}()
}
