package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/store"
	"github.com/abhisek/quizgen/internal/tasks"
)

// Activity actions recorded by the service.
const (
	ActionGenerated          = "quiz.generated"
	ActionGenerationFailed   = "quiz.generation_failed"
	ActionRegenerated        = "quiz.regenerated"
	ActionRegenerationFailed = "quiz.regeneration_failed"
	ActionCancelled          = "quiz.generation_cancelled"
)

// run drives one registered task through the state machine.
type run struct {
	s       *Service
	id      string
	userID  string
	kind    tasks.Kind
	started time.Time
	log     logrus.FieldLogger
}

func (s *Service) startRun(ctx context.Context, userID string, kind tasks.Kind, req quiz.GenerationRequest) (*run, context.Context) {
	snap, tctx := s.tasks.Create(ctx, userID, kind, req)
	r := &run{
		s:       s,
		id:      snap.ID,
		userID:  userID,
		kind:    kind,
		started: s.now(),
		log: s.log.WithFields(logrus.Fields{
			"task_id": snap.ID,
			"user_id": userID,
			"kind":    kind,
		}),
	}
	r.log.WithField("status", tasks.StatusStarting).Debug("task registered")
	return r, llm.WithTaskID(tctx, snap.ID)
}

// advance moves the task forward. A task that is no longer registered was
// cancelled and yields *quiz.CancelledError.
func (r *run) advance(status tasks.Status, details string) error {
	if _, err := r.s.tasks.UpdateStatus(r.id, status, details); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return &quiz.CancelledError{TaskID: r.id}
		}
		return err
	}
	r.log.WithField("status", status).Debug(details)
	return nil
}

// cancelled reports whether the task was removed by a cancel request.
func (r *run) cancelled() bool {
	_, ok := r.s.tasks.Get(r.id)
	return !ok
}

func (r *run) elapsed() time.Duration {
	return r.s.now().Sub(r.started)
}

// commit moves the task to completed once its result is persisted. A task
// that was cancelled first cannot complete; the caller must undo the write.
// Cancel requests arriving after commit are rejected by the registry.
func (r *run) commit(details string) error {
	if _, err := r.s.tasks.UpdateStatus(r.id, tasks.StatusCompleted, details); err != nil {
		r.log.WithError(err).Info("task cancelled while its result was being saved")
		return &quiz.CancelledError{TaskID: r.id}
	}
	return nil
}

// complete removes a committed task and records the activity.
func (r *run) complete(ctx context.Context, action, quizID, details string) {
	r.s.tasks.Remove(r.id)

	d := r.elapsed()
	r.log.WithFields(logrus.Fields{
		"status":      tasks.StatusCompleted,
		"quiz_id":     quizID,
		"duration_ms": d.Milliseconds(),
	}).Info(details)

	r.s.record(ctx, store.ActivityEventData{
		Action:     action,
		UserID:     r.userID,
		TaskID:     r.id,
		QuizID:     quizID,
		Success:    true,
		DurationMs: d.Milliseconds(),
		Details:    details,
	})
}

// fail ends the task as failed (or cancelled), removes it and returns err
// annotated with the task and user ids.
func (r *run) fail(ctx context.Context, action string, err error) error {
	err = r.annotate(err)

	var ce *quiz.CancelledError
	if errors.As(err, &ce) {
		action = ActionCancelled
		r.log.WithField("status", tasks.StatusCancelled).Info("task cancelled, result discarded")
	} else {
		if _, uerr := r.s.tasks.UpdateStatus(r.id, tasks.StatusFailed, err.Error()); uerr != nil && !errors.Is(uerr, tasks.ErrNotFound) {
			r.log.WithError(uerr).Warn("could not mark task failed")
		}
		r.log.WithError(err).WithField("status", tasks.StatusFailed).Warn("task failed")
	}
	r.s.tasks.Remove(r.id)

	r.s.record(ctx, store.ActivityEventData{
		Action:     action,
		UserID:     r.userID,
		TaskID:     r.id,
		Success:    false,
		DurationMs: r.elapsed().Milliseconds(),
		Details:    err.Error(),
	})
	return err
}

// annotate attaches task and user context to typed errors.
func (r *run) annotate(err error) error {
	var (
		ve *quiz.ValidationError
		ae *quiz.AuthorizationError
		ie *llm.InvokeError
	)
	switch {
	case errors.As(err, &ve):
		if ve.TaskID == "" {
			ve.TaskID = r.id
		}
	case errors.As(err, &ae):
		if ae.TaskID == "" {
			ae.TaskID = r.id
		}
	case errors.As(err, &ie):
		return &quiz.AIServiceError{
			Kind:     aiKind(ie),
			Attempts: ie.Attempts,
			TaskID:   r.id,
			UserID:   r.userID,
			Err:      err,
		}
	}
	return err
}

func aiKind(ie *llm.InvokeError) string {
	if k, ok := llm.KindOf(ie); ok {
		return k.String()
	}
	switch {
	case errors.Is(ie, context.DeadlineExceeded):
		return llm.KindTimeout.String()
	case errors.Is(ie, context.Canceled):
		return "cancelled"
	}
	return llm.KindTransient.String()
}

// record stores an activity event. Failures are logged, never returned.
func (s *Service) record(ctx context.Context, data store.ActivityEventData) {
	if s.activity == nil {
		return
	}
	if err := s.activity.AppendActivity(context.WithoutCancel(ctx), data); err != nil {
		s.log.WithError(err).WithField("action", data.Action).Warn("failed to record activity")
	}
}

func usageDetails(res *llm.Result, model string) string {
	return fmt.Sprintf("model=%s attempts=%d input_tokens=%d output_tokens=%d",
		model, res.Attempts, res.Usage.InputTokens, res.Usage.OutputTokens)
}
