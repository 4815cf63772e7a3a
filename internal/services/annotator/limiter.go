package annotator

import (
	"context"
	"sync"
	"time"
)

// CallLimiter serializes scoring calls so consecutive requests to the external
// provider stay at least one interval apart. The limiter is a process-wide
// service injected into every caller rather than hidden package state, so all
// annotator instances share the same pacing.
//
// Only successful calls consume budget: Acquire waits out the interval since
// the last recorded success, and callers stamp via RecordSuccess after the
// provider call returns cleanly. A failed call leaves the timestamp untouched,
// so a failure neither wastes a slot nor tightens the next caller's wait.
type CallLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastCall    time.Time
}

// NewCallLimiter creates a limiter with the given minimum interval between
// successful calls. A zero or negative interval disables pacing.
func NewCallLimiter(minInterval time.Duration) *CallLimiter {
	return &CallLimiter{
		minInterval: minInterval,
	}
}

// Acquire blocks until at least the minimum interval has elapsed since the
// last successful call. The wait is computed under the lock but slept outside
// it, so concurrent callers serialize on the provider without holding the lock
// through the sleep. Returns early with the context error on cancellation.
func (l *CallLimiter) Acquire(ctx context.Context) error {
	if l.minInterval <= 0 {
		return nil
	}

	for {
		l.mu.Lock()
		var wait time.Duration
		if !l.lastCall.IsZero() {
			elapsed := time.Since(l.lastCall)
			if elapsed < l.minInterval {
				wait = l.minInterval - elapsed
			}
		}
		l.mu.Unlock()

		if wait <= 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			// Re-check: another caller may have stamped a success while we slept.
		}
	}
}

// RecordSuccess stamps the current time as the last successful call.
// Callers invoke this only after the external call returned cleanly.
func (l *CallLimiter) RecordSuccess() {
	l.mu.Lock()
	l.lastCall = time.Now()
	l.mu.Unlock()
}

// MinInterval returns the configured pacing interval
func (l *CallLimiter) MinInterval() time.Duration {
	return l.minInterval
}
