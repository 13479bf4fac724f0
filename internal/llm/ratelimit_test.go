package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWindowLimiter_BlocksAtCeiling(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	l := newWindowLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
		now = now.Add(10 * time.Second)
	}

	// Fourth call inside the first minute has to wait for the first admission
	// to age out.
	if got := l.admit(now); got != 30*time.Second {
		t.Fatalf("wait = %s, want 30s", got)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	now = start.Add(time.Minute)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("call after window reset: %v", err)
	}
}

func TestWindowLimiter_NeverExceedsCeiling(t *testing.T) {
	const ceiling = 120
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newWindowLimiter(ceiling, time.Minute)

	// Callers arrive every 25ms for five minutes; blocked callers are admitted
	// at the time admit asks them to retry.
	var admitted []time.Time
	for arrival := start; arrival.Before(start.Add(5 * time.Minute)); arrival = arrival.Add(25 * time.Millisecond) {
		at := arrival
		for {
			wait := l.admit(at)
			if wait == 0 {
				break
			}
			at = at.Add(wait)
		}
		admitted = append(admitted, at)
	}

	firstMinute := 0
	for _, at := range admitted {
		if at.Before(start.Add(time.Minute)) {
			firstMinute++
		}
	}
	if firstMinute != ceiling {
		t.Fatalf("admitted %d calls in the first minute, want %d", firstMinute, ceiling)
	}

	for i, from := range admitted {
		n := 0
		for _, at := range admitted[i:] {
			if at.Sub(from) >= time.Minute {
				break
			}
			n++
		}
		if n > ceiling {
			t.Fatalf("%d calls admitted in the minute from %s", n, from.Format(time.TimeOnly))
		}
	}
}

func TestWindowLimiter_Disabled(t *testing.T) {
	l := newWindowLimiter(0, time.Minute)
	for i := 0; i < 1000; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
