package generation

import (
	"context"
	"time"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/store"
)

// QuizStore persists quizzes. Unknown ids yield *quiz.NotFoundError.
type QuizStore interface {
	FindQuiz(ctx context.Context, id string) (*quiz.Quiz, error)
	SaveQuiz(ctx context.Context, q *quiz.Quiz) error
	DeleteQuiz(ctx context.Context, id string) error
	UpdateQuestions(ctx context.Context, q *quiz.Quiz) error
	CountGenerationsToday(ctx context.Context, userID string, since time.Time) (int, error)
	CheckCollaborator(ctx context.Context, quizID, userID string) (bool, error)
}

// UserStore resolves the account a request is made for.
type UserStore interface {
	FindUser(ctx context.Context, id string) (*quiz.User, error)
}

// QuotaLedger counts generations per user and local day. Reservation is a
// single conditional increment so concurrent requests cannot overshoot the
// ceiling.
type QuotaLedger interface {
	ReserveGeneration(ctx context.Context, userID, day string, ceiling int) (used int, ok bool, err error)
	ReleaseGeneration(ctx context.Context, userID, day string) error
	GenerationUsage(ctx context.Context, userID, day string) (int, error)
}

// ActivityRecorder stores pipeline activity.
type ActivityRecorder interface {
	AppendActivity(ctx context.Context, data store.ActivityEventData) error
}

// Invoker is the model client as seen by the orchestrator.
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (*llm.Result, error)
	ModelID() string
	ProviderName() string
}

var (
	_ QuizStore        = (*store.Store)(nil)
	_ UserStore        = (*store.Store)(nil)
	_ QuotaLedger      = (*store.Store)(nil)
	_ ActivityRecorder = store.EventRepo(nil)
	_ Invoker          = (*llm.Client)(nil)
)
