// Package tasks tracks in-flight generation work so it can be polled and
// cancelled. Tasks are diagnostic state and never persisted.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizgen/internal/quiz"
)

// Status is a task's position in the generation state machine.
type Status string

const (
	StatusStarting       Status = "starting"
	StatusBuildingPrompt Status = "building_prompt"
	StatusGenerating     Status = "generating"
	StatusParsing        Status = "parsing"
	StatusEnhancing      Status = "enhancing"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
)

// rank orders the forward path. Failed and cancelled sit outside it.
var rank = map[Status]int{
	StatusStarting:       0,
	StatusBuildingPrompt: 1,
	StatusGenerating:     2,
	StatusParsing:        3,
	StatusEnhancing:      4,
	StatusCompleted:      5,
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

func (s Status) valid() bool {
	_, onPath := rank[s]
	return onPath || s == StatusFailed || s == StatusCancelled
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	if from.Terminal() || !to.valid() {
		return false
	}
	if to == StatusFailed || to == StatusCancelled {
		return true
	}
	return rank[to] > rank[from]
}

// Kind distinguishes full generations from partial regenerations.
type Kind string

const (
	KindGeneration   Kind = "generation"
	KindRegeneration Kind = "regeneration"
)

// ErrNotFound is returned for ids that are not (or no longer) registered.
var ErrNotFound = errors.New("task not found")

// TransitionError rejects an illegal status change.
type TransitionError struct {
	TaskID string
	From   Status
	To     Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("task %s: illegal transition %s -> %s", e.TaskID, e.From, e.To)
}

// Snapshot is a copy of a task's state.
type Snapshot struct {
	ID           string
	UserID       string
	Kind         Kind
	Status       Status
	StartedAt    time.Time
	LastUpdateAt time.Time
	Details      string
	Request      quiz.GenerationRequest
}

// Observer is notified after every registration and status change.
type Observer func(Snapshot)

type entry struct {
	snap   Snapshot
	cancel context.CancelFunc
}

// Registry is a concurrency-safe map of live tasks.
type Registry struct {
	mu        sync.Mutex
	tasks     map[string]*entry
	now       func() time.Time
	observers []Observer
}

// Option configures a Registry.
type Option func(*Registry)

// WithObserver registers fn for every transition.
func WithObserver(fn Observer) Option {
	return func(r *Registry) { r.observers = append(r.observers, fn) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tasks: make(map[string]*entry),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create registers a task in StatusStarting. The returned context derives
// from ctx and is cancelled when the task is removed.
func (r *Registry) Create(ctx context.Context, userID string, kind Kind, req quiz.GenerationRequest) (Snapshot, context.Context) {
	taskCtx, cancel := context.WithCancel(ctx)
	now := r.now()
	e := &entry{
		snap: Snapshot{
			ID:           uuid.NewString(),
			UserID:       userID,
			Kind:         kind,
			Status:       StatusStarting,
			StartedAt:    now,
			LastUpdateAt: now,
			Request:      req,
		},
		cancel: cancel,
	}

	r.mu.Lock()
	r.tasks[e.snap.ID] = e
	snap := e.snap
	r.mu.Unlock()

	r.notify(snap)
	return snap, taskCtx
}

// Get returns the task with the given id.
func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.tasks[id]
	if !ok {
		return Snapshot{}, false
	}
	return e.snap, true
}

// UpdateStatus moves a task forward. It returns ErrNotFound for removed
// tasks and a *TransitionError for illegal moves.
func (r *Registry) UpdateStatus(id string, status Status, details string) (Snapshot, error) {
	r.mu.Lock()
	e, ok := r.tasks[id]
	if !ok {
		r.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !CanTransition(e.snap.Status, status) {
		from := e.snap.Status
		r.mu.Unlock()
		return Snapshot{}, &TransitionError{TaskID: id, From: from, To: status}
	}
	e.snap.Status = status
	e.snap.Details = details
	e.snap.LastUpdateAt = r.now()
	snap := e.snap
	r.mu.Unlock()

	r.notify(snap)
	return snap, nil
}

// Remove deletes the task and cancels its context.
func (r *Registry) Remove(id string) (Snapshot, bool) {
	r.mu.Lock()
	e, ok := r.tasks[id]
	if ok {
		delete(r.tasks, id)
	}
	r.mu.Unlock()

	if !ok {
		return Snapshot{}, false
	}
	e.cancel()
	return e.snap, true
}

// Len returns the number of live tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// List returns snapshots of every live task owned by userID, or of all tasks
// when userID is empty.
func (r *Registry) List(userID string) []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, 0, len(r.tasks))
	for _, e := range r.tasks {
		if userID == "" || e.snap.UserID == userID {
			out = append(out, e.snap)
		}
	}
	return out
}

func (r *Registry) notify(s Snapshot) {
	for _, fn := range r.observers {
		fn(s)
	}
}
