package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/quizgen/internal/quiz"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusStarting, StatusBuildingPrompt, true},
		{StatusStarting, StatusGenerating, true},
		{StatusGenerating, StatusParsing, true},
		{StatusEnhancing, StatusCompleted, true},
		{StatusParsing, StatusGenerating, false},
		{StatusGenerating, StatusGenerating, false},
		{StatusGenerating, StatusFailed, true},
		{StatusStarting, StatusCancelled, true},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusCancelled, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusStarting, Status("paused"), false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(WithClock(func() time.Time { return now }))

	snap, ctx := r.Create(context.Background(), "u1", KindGeneration, quiz.GenerationRequest{UserID: "u1"})
	if snap.ID == "" || snap.Status != StatusStarting || !snap.StartedAt.Equal(now) {
		t.Fatalf("created = %+v", snap)
	}

	got, ok := r.Get(snap.ID)
	if !ok || got.UserID != "u1" || got.Kind != KindGeneration {
		t.Fatalf("get = %+v, %v", got, ok)
	}

	now = now.Add(time.Second)
	updated, err := r.UpdateStatus(snap.ID, StatusGenerating, "calling model")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Details != "calling model" || !updated.LastUpdateAt.Equal(now) {
		t.Fatalf("updated = %+v", updated)
	}

	_, err = r.UpdateStatus(snap.ID, StatusBuildingPrompt, "")
	var te *TransitionError
	if !errors.As(err, &te) || te.From != StatusGenerating {
		t.Fatalf("backward transition error = %v", err)
	}

	if _, ok := r.Remove(snap.ID); !ok {
		t.Fatal("remove returned false")
	}
	if ctx.Err() == nil {
		t.Fatal("task context should be cancelled on remove")
	}
	if _, ok := r.Get(snap.ID); ok {
		t.Fatal("task still present after remove")
	}
	if _, err := r.UpdateStatus(snap.ID, StatusParsing, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update after remove = %v, want ErrNotFound", err)
	}
	if _, ok := r.Remove(snap.ID); ok {
		t.Fatal("second remove should report false")
	}
}

func TestRegistry_TerminalIsFinal(t *testing.T) {
	r := NewRegistry()
	snap, _ := r.Create(context.Background(), "u1", KindRegeneration, quiz.GenerationRequest{})

	if _, err := r.UpdateStatus(snap.ID, StatusCancelled, "user request"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := r.UpdateStatus(snap.ID, StatusCompleted, ""); err == nil {
		t.Fatal("completed after cancelled must fail")
	}
}

func TestRegistry_Observer(t *testing.T) {
	var seen []Status
	r := NewRegistry(WithObserver(func(s Snapshot) { seen = append(seen, s.Status) }))

	snap, _ := r.Create(context.Background(), "u1", KindGeneration, quiz.GenerationRequest{})
	r.UpdateStatus(snap.ID, StatusBuildingPrompt, "")
	r.UpdateStatus(snap.ID, StatusFailed, "boom")

	want := []Status{StatusStarting, StatusBuildingPrompt, StatusFailed}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestRegistry_IndependentInstances(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	snap, _ := a.Create(context.Background(), "u1", KindGeneration, quiz.GenerationRequest{})
	if _, ok := b.Get(snap.ID); ok {
		t.Fatal("registries must not share state")
	}
}

func TestRegistry_ListAndConcurrency(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := "u1"
			if i%2 == 1 {
				user = "u2"
			}
			snap, _ := r.Create(context.Background(), user, KindGeneration, quiz.GenerationRequest{})
			r.UpdateStatus(snap.ID, StatusBuildingPrompt, "")
		}(i)
	}
	wg.Wait()

	if r.Len() != 50 {
		t.Fatalf("len = %d, want 50", r.Len())
	}
	if n := len(r.List("u1")); n != 25 {
		t.Fatalf("u1 tasks = %d, want 25", n)
	}
	if n := len(r.List("")); n != 50 {
		t.Fatalf("all tasks = %d, want 50", n)
	}
}
