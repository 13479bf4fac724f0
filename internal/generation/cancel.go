package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/tasks"
)

// CancelResult is returned by a successful cancel request.
type CancelResult struct {
	TaskID string
	Status tasks.Status
}

// CancelGeneration cancels a task owned by userID. The task's context is
// cancelled, which aborts a pending model call, rate-limit wait or backoff
// sleep; a result that still arrives is discarded.
func (s *Service) CancelGeneration(ctx context.Context, taskID, userID string) (CancelResult, error) {
	if _, err := s.ownedTask(taskID, userID, "cancel"); err != nil {
		return CancelResult{}, err
	}

	if _, err := s.tasks.UpdateStatus(taskID, tasks.StatusCancelled, "cancelled by user"); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			return CancelResult{}, &quiz.NotFoundError{Resource: "task", ID: taskID}
		}
		var te *tasks.TransitionError
		if errors.As(err, &te) {
			return CancelResult{}, &quiz.ValidationError{
				Field:  "task",
				Reason: fmt.Sprintf("task is already %s", te.From),
				TaskID: taskID,
			}
		}
		return CancelResult{}, err
	}
	s.tasks.Remove(taskID)

	s.log.WithField("task_id", taskID).WithField("user_id", userID).Info("generation cancelled")
	return CancelResult{TaskID: taskID, Status: tasks.StatusCancelled}, nil
}

// GenerationStatus reports the current state of a task owned by userID.
func (s *Service) GenerationStatus(taskID, userID string) (tasks.Snapshot, error) {
	return s.ownedTask(taskID, userID, "view")
}

func (s *Service) ownedTask(taskID, userID, action string) (tasks.Snapshot, error) {
	snap, ok := s.tasks.Get(taskID)
	if !ok {
		return tasks.Snapshot{}, &quiz.NotFoundError{Resource: "task", ID: taskID}
	}
	if snap.UserID != userID {
		return tasks.Snapshot{}, &quiz.AuthorizationError{
			UserID:   userID,
			Action:   action,
			Resource: "task " + taskID,
			TaskID:   taskID,
		}
	}
	return snap, nil
}
