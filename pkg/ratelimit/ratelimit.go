// Package ratelimit provides a fixed-window in-memory request limiter
// keyed by an arbitrary string (typically the client IP).
//
// The limiter is process-local by design: records live in a plain map
// guarded by a mutex and are never evicted, only reset when their window
// expires. This favors simplicity over memory tightness and is suitable
// for low-traffic endpoints; it is explicitly not a distributed limiter.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultMaxRequests is the default number of requests allowed per window.
	DefaultMaxRequests = 5

	// DefaultWindow is the default window length.
	DefaultWindow = time.Hour
)

// record tracks request count and the window expiry for a single key.
type record struct {
	resetAt time.Time
	count   int
}

// Limiter is a fixed-window counter limiter.
type Limiter struct {
	records map[string]*record
	now     func() time.Time
	max     int
	window  time.Duration
	mu      sync.Mutex
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Limiter allowing max requests per window.
// Non-positive max or window fall back to the defaults.
func New(max int, window time.Duration, opts ...Option) *Limiter {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}

	l := &Limiter{
		records: make(map[string]*record),
		now:     time.Now,
		max:     max,
		window:  window,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether a request for key is within the limit and,
// if so, consumes one slot from the current window.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok || now.After(rec.resetAt) {
		l.records[key] = &record{count: 1, resetAt: now.Add(l.window)}
		return true
	}

	if rec.count >= l.max {
		return false
	}

	rec.count++
	return true
}

// Remaining returns how many requests the key may still make in the
// current window. A key with no record has the full budget.
func (l *Limiter) Remaining(key string) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok || now.After(rec.resetAt) {
		return l.max
	}
	if rec.count >= l.max {
		return 0
	}
	return l.max - rec.count
}

// Len returns the number of tracked keys, expired windows included.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
