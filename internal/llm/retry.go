package llm

import (
	"context"
	"errors"
	"time"
)

// Disposition is the retry decision for a failed attempt.
type Disposition int

const (
	Retryable Disposition = iota
	Terminal
)

func (d Disposition) String() string {
	if d == Terminal {
		return "terminal"
	}
	return "retryable"
}

// Classify decides whether a failed attempt may be retried. Safety blocks,
// invalid input, permission problems and caller cancellation are final;
// everything else, including untagged errors, is retried.
func Classify(err error) Disposition {
	if errors.Is(err, context.Canceled) {
		return Terminal
	}
	kind, ok := KindOf(err)
	if !ok {
		return Retryable
	}
	switch kind {
	case KindSafetyBlock, KindInvalidInput, KindPermissionDenied:
		return Terminal
	default:
		return Retryable
	}
}

// Backoff returns the wait before the attempt following the given one
// (1-based): base, 2*base, 4*base, ... capped at maxWait. A non-positive maxWait
// disables the cap.
func Backoff(base, maxWait time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	wait := base
	for i := 1; i < attempt; i++ {
		wait *= 2
		if maxWait > 0 && wait >= maxWait {
			return maxWait
		}
	}
	if maxWait > 0 && wait > maxWait {
		return maxWait
	}
	return wait
}

// retryWait picks the wait after a failed attempt. An upstream RetryAfter
// hint replaces the backoff but is still capped at maxWait.
func retryWait(err error, base, maxWait time.Duration, attempt int) time.Duration {
	var e *Error
	if errors.As(err, &e) && e.RetryAfter > 0 {
		if maxWait > 0 && e.RetryAfter > maxWait {
			return maxWait
		}
		return e.RetryAfter
	}
	return Backoff(base, maxWait, attempt)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
