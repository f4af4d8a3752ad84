// Package ratelimit implements a fixed-window per-client request
// limiter.
//
// Fixed-window counting is intentional: it admits a burst of up to twice
// the limit across a window boundary, but it is O(1) per request and its
// memory is bounded by the number of active clients. State is
// process-local; scaled-out instances each enforce their own windows.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count   int
	resetAt time.Time
}

// Decision is the outcome of consuming one request from a bucket.
type Decision struct {
	Allowed bool
	// Remaining is how many requests are left in the current window.
	Remaining int
	// RetryAfterSeconds is set on denial: whole seconds (rounded up)
	// until the window resets.
	RetryAfterSeconds int
}

// Limiter owns the client -> bucket mapping. Construct one per process
// and inject it into the middleware chain; all methods are safe for
// concurrent use.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	buckets map[string]*bucket
}

// New creates a limiter allowing max requests per client per window.
func New(window time.Duration, max int) *Limiter {
	return &Limiter{
		window:  window,
		max:     max,
		buckets: make(map[string]*bucket),
	}
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Max returns the configured per-window request cap.
func (l *Limiter) Max() int {
	return l.max
}

// Allow consumes one request for clientID at time now. A missing bucket
// or an elapsed window starts a fresh bucket with count 1; an elapsed
// bucket is always replaced, never incremented in place.
func (l *Limiter) Allow(clientID string, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[clientID]
	if !ok || !now.Before(b.resetAt) {
		l.buckets[clientID] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return Decision{Allowed: true, Remaining: l.max - 1}
	}

	if b.count < l.max {
		b.count++
		return Decision{Allowed: true, Remaining: l.max - b.count}
	}

	retry := int((b.resetAt.Sub(now) + time.Second - 1) / time.Second)
	if retry < 1 {
		retry = 1
	}
	return Decision{Allowed: false, RetryAfterSeconds: retry}
}

// Sweep evicts buckets whose window has elapsed and returns how many
// were removed.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked buckets, elapsed or not.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Run sweeps on a fixed interval until ctx is cancelled. The interval
// should be at most one window so stale buckets do not accumulate.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Sweep(now)
		}
	}
}
