// Package ratelimit implements a per-key sliding-window request limiter.
//
// Each key tracks the timestamps of its accepted requests inside the
// trailing window. The key space is bounded by an LRU with an idle TTL so
// high key cardinality (many distinct client addresses) cannot grow memory
// without bound. The limiter is process-local: a multi-instance deployment
// needs a shared store for a global limit (see middleware.RedisRateLimit).
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Policy is a (window, max requests) pair. Construct with NewPolicy so that
// misconfiguration is caught at startup, not per request.
type Policy struct {
	Window      time.Duration
	MaxRequests int
}

// NewPolicy validates and returns a rate limit policy.
func NewPolicy(window time.Duration, maxRequests int) (Policy, error) {
	if window <= 0 {
		return Policy{}, fmt.Errorf("rate limit window must be positive, got %v", window)
	}
	if maxRequests < 1 {
		return Policy{}, fmt.Errorf("rate limit max requests must be at least 1, got %d", maxRequests)
	}
	return Policy{Window: window, MaxRequests: maxRequests}, nil
}

// MustPolicy is NewPolicy for package-level policy definitions.
func MustPolicy(window time.Duration, maxRequests int) Policy {
	p, err := NewPolicy(window, maxRequests)
	if err != nil {
		panic(err)
	}
	return p
}

// Result reports the outcome of a single Check call.
type Result struct {
	Allowed   bool
	Remaining int
	// ResetAt is when the oldest counted request leaves the window.
	ResetAt time.Time
}

// RetryAfter returns the whole seconds (rounded up) until ResetAt.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return secs
}

// Limiter is a sliding-window request counter over a bounded key space.
// A single mutex covers the read-prune-append cycle so concurrent requests
// for the same key never undercount.
type Limiter struct {
	mu       sync.Mutex
	entries  *expirable.LRU[string, []time.Time]
	disabled bool
	now      func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithDisabled makes every Check return allowed without consulting storage.
// Used by automated tests and local tooling.
func WithDisabled(disabled bool) Option {
	return func(l *Limiter) { l.disabled = disabled }
}

// WithClock overrides the time source. Tests use this to step through
// windows without sleeping.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter holding at most maxKeys keys. Keys untouched for
// idleTTL are expired even when the cache is below capacity.
func New(maxKeys int, idleTTL time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		entries: expirable.NewLRU[string, []time.Time](maxKeys, nil, idleTTL),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check decides whether the request identified by key is allowed under the
// policy. Allowed requests are recorded; rejected requests are not, so a
// rejected burst neither consumes slots nor extends the window.
func (l *Limiter) Check(key string, p Policy) Result {
	now := l.now()

	if l.disabled {
		return Result{
			Allowed:   true,
			Remaining: p.MaxRequests,
			ResetAt:   now.Add(p.Window),
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	stamps, _ := l.entries.Get(key)
	stamps = pruneOlderThan(stamps, now.Add(-p.Window))

	if len(stamps) >= p.MaxRequests {
		// Oldest retained timestamp leaves the window first. Do not store
		// the pruned slice back: the next allowed request re-prunes, and a
		// rejected request must not refresh the key's idle TTL.
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   stamps[0].Add(p.Window),
		}
	}

	stamps = append(stamps, now)
	l.entries.Add(key, stamps)

	return Result{
		Allowed:   true,
		Remaining: p.MaxRequests - len(stamps),
		ResetAt:   stamps[0].Add(p.Window),
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries.Len()
}

// pruneOlderThan drops timestamps at or before cutoff. Timestamps are
// appended in order, so the retained suffix keeps its ordering.
func pruneOlderThan(stamps []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(stamps) && !stamps[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return stamps
	}
	// Copy to a fresh slice so the old backing array can be collected
	out := make([]time.Time, len(stamps)-idx)
	copy(out, stamps[idx:])
	return out
}
