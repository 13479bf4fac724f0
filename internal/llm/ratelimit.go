package llm

import (
	"context"
	"sync"
	"time"
)

// windowLimiter admits at most n calls in any sliding window. A caller over
// the ceiling waits until the oldest admission leaves the window.
type windowLimiter struct {
	mu     sync.Mutex
	n      int
	window time.Duration
	admits []time.Time
	now    func() time.Time
}

func newWindowLimiter(n int, window time.Duration) *windowLimiter {
	return &windowLimiter{n: n, window: window, now: time.Now}
}

// admit records a call at now and returns zero, or returns how long the
// caller must wait before trying again.
func (l *windowLimiter) admit(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.admits) && !l.admits[i].After(cutoff) {
		i++
	}
	l.admits = l.admits[i:]

	if len(l.admits) < l.n {
		l.admits = append(l.admits, now)
		return 0
	}
	return l.admits[0].Add(l.window).Sub(now)
}

// Wait blocks until a call may proceed or ctx is done. A limiter with no
// ceiling admits everything.
func (l *windowLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l == nil || l.n <= 0 {
		return nil
	}
	for {
		wait := l.admit(l.now())
		if wait <= 0 {
			return nil
		}
		if err := sleepContext(ctx, wait); err != nil {
			return err
		}
	}
}
