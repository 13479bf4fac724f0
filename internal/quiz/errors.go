package quiz

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded is wrapped by the ValidationError returned when a user
// has used up the daily generation allowance.
var ErrQuotaExceeded = errors.New("daily generation quota exceeded")

// ValidationError reports malformed input or model output that failed
// schema validation. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
	TaskID string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	if e.TaskID != "" {
		msg = fmt.Sprintf("%s (task %s)", msg, e.TaskID)
	}
	return "validation failed: " + msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthorizationError indicates the caller may not act on a resource.
type AuthorizationError struct {
	UserID   string
	Action   string
	Resource string
	TaskID   string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %q is not allowed to %s %s", e.UserID, e.Action, e.Resource)
}

// NotFoundError indicates an unknown quiz, user, or task id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// AIServiceError wraps a failure of the generative model after the client's
// retry policy gave up, or on a terminal provider error.
type AIServiceError struct {
	// Kind is the provider error classification, e.g. "timeout" or
	// "safety_block".
	Kind     string
	Attempts int
	TaskID   string
	UserID   string
	Err      error
}

func (e *AIServiceError) Error() string {
	return fmt.Sprintf("AI service error (%s) after %d attempt(s) for task %s: %v", e.Kind, e.Attempts, e.TaskID, e.Err)
}

func (e *AIServiceError) Unwrap() error { return e.Err }

// CancelledError is returned by a generation whose task was cancelled while
// it was running. Its result, if any, has been discarded.
type CancelledError struct {
	TaskID string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("generation task %s was cancelled", e.TaskID)
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
