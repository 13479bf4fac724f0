package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/tasks"
)

func TestGenerateFromText_Photosynthesis(t *testing.T) {
	h := newHarness(t, []llm.MockResponse{{
		Text:  mcQuizJSON(5),
		Usage: llm.Usage{InputTokens: 400, OutputTokens: 600, TotalTokens: 1000},
	}})

	q, err := h.svc.GenerateFromText(t.Context(), photosynthesisRequest())
	require.NoError(t, err)

	require.Len(t, q.Questions, 5)
	for i, question := range q.Questions {
		assert.Equal(t, quiz.TypeMultipleChoice, question.Type, "question %d", i)
		assert.Len(t, question.Options, 4, "question %d", i)
		require.NotNil(t, question.CorrectAnswerIndex, "question %d", i)
		assert.GreaterOrEqual(t, *question.CorrectAnswerIndex, 0)
		assert.LessOrEqual(t, *question.CorrectAnswerIndex, 3)
	}

	assert.Equal(t, "Photosynthesis Basics", q.Title)
	assert.Equal(t, "u1", q.UserID)
	assert.Equal(t, 1, q.Version)
	assert.NotEmpty(t, q.ID)

	meta := q.GenerationMetadata
	assert.NotEmpty(t, meta.GenerationID)
	assert.Equal(t, "mock", meta.Model)
	assert.Equal(t, "mock", meta.Provider)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, 400, meta.InputTokens)
	assert.Contains(t, meta.Prompt, "Photosynthesis basics")
	assert.Equal(t, 5, meta.Parameters.NumberOfQuestions)
	assert.Equal(t, quiz.SourceText, meta.Parameters.Source)

	assert.Equal(t, 5, q.Statistics.QuestionTypes[quiz.TypeMultipleChoice])
	assert.Equal(t, 5, q.Statistics.EstimatedMinutes)

	assert.Equal(t, 1, h.store.saveCalls)
	assert.Equal(t, 1, h.store.usageOf("u1"))
	assert.Equal(t, 0, h.svc.Tasks().Len())

	assert.Equal(t, []tasks.Status{
		tasks.StatusStarting,
		tasks.StatusBuildingPrompt,
		tasks.StatusGenerating,
		tasks.StatusParsing,
		tasks.StatusEnhancing,
		tasks.StatusCompleted,
	}, h.status.statuses())

	act := h.store.lastActivity(t)
	assert.Equal(t, ActionGenerated, act.Action)
	assert.True(t, act.Success)
	assert.Equal(t, q.ID, act.QuizID)
}

func TestGenerateFromText_TitleOverride(t *testing.T) {
	h := newHarness(t, []llm.MockResponse{{Text: mcQuizJSON(5)}})

	req := photosynthesisRequest()
	req.Title = "Biology Week 3"
	q, err := h.svc.GenerateFromText(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, "Biology Week 3", q.Title)
}

func TestGenerateFromText_QuotaExceeded(t *testing.T) {
	h := newHarness(t, []llm.MockResponse{{Text: mcQuizJSON(5)}}, withCeiling(quiz.RoleStudent, 3))
	h.store.setUsage("u2", 3)

	req := photosynthesisRequest()
	req.UserID = "u2"
	_, err := h.svc.GenerateFromText(t.Context(), req)

	var ve *quiz.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, quiz.ErrQuotaExceeded)
	assert.Equal(t, "quota", ve.Field)
	assert.NotEmpty(t, ve.TaskID, "error should carry the task id")

	assert.Equal(t, 0, h.mock.CallCount(), "no model call when quota is exhausted")
	assert.Equal(t, 3, h.store.usageOf("u2"), "usage unchanged")
	assert.Equal(t, 0, h.store.saveCalls)
	assert.Equal(t, 0, h.svc.Tasks().Len())

	statuses := h.status.statuses()
	assert.Equal(t, tasks.StatusStarting, statuses[0], "task is registered before the quota check")
	assert.Equal(t, tasks.StatusFailed, statuses[len(statuses)-1])
	assert.Equal(t, ActionGenerationFailed, h.store.lastActivity(t).Action)
}

func TestGenerateFromText_MalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", "Sorry, I can't produce a quiz right now."},
		{"missing questions", `{"title": "Photosynthesis"}`},
		{"wrong count", mcQuizJSON(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, []llm.MockResponse{{Text: tt.text}})

			q, err := h.svc.GenerateFromText(t.Context(), photosynthesisRequest())
			assert.Nil(t, q)

			var ve *quiz.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, 1, h.mock.CallCount(), "parse failures are not retried")

			statuses := h.status.statuses()
			assert.Equal(t, tasks.StatusFailed, statuses[len(statuses)-1])
			assert.NotContains(t, statuses, tasks.StatusCompleted)

			assert.Equal(t, 0, h.store.saveCalls)
			assert.Equal(t, 0, h.store.usageOf("u1"), "reservation released")
			assert.Equal(t, 0, h.svc.Tasks().Len())
		})
	}
}

func TestGenerateFromText_RetriesTransientFailure(t *testing.T) {
	transient := &llm.Error{Kind: llm.KindTransient, Provider: "mock", Err: errors.New("502 bad gateway")}
	h := newHarness(t, []llm.MockResponse{
		{Err: transient},
		{Err: transient},
		{Text: mcQuizJSON(5)},
	})

	q, err := h.svc.GenerateFromText(t.Context(), photosynthesisRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, h.mock.CallCount())
	assert.Equal(t, 3, q.GenerationMetadata.Attempts)
}

func TestGenerateFromText_TerminalAIError(t *testing.T) {
	blocked := &llm.Error{Kind: llm.KindSafetyBlock, Provider: "mock", Err: errors.New("prompt blocked")}
	h := newHarness(t, []llm.MockResponse{{Err: blocked}, {Text: mcQuizJSON(5)}})

	_, err := h.svc.GenerateFromText(t.Context(), photosynthesisRequest())

	var ae *quiz.AIServiceError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "safety_block", ae.Kind)
	assert.Equal(t, 1, ae.Attempts)
	assert.Equal(t, "u1", ae.UserID)
	assert.NotEmpty(t, ae.TaskID)

	assert.Equal(t, 1, h.mock.CallCount(), "safety blocks are never retried")
	assert.Equal(t, 0, h.store.usageOf("u1"))
}

func TestGenerateFromText_ExhaustedRetries(t *testing.T) {
	timeout := &llm.Error{Kind: llm.KindTimeout, Provider: "mock", Err: errors.New("deadline")}
	h := newHarness(t, []llm.MockResponse{{Err: timeout}, {Err: timeout}, {Err: timeout}})

	_, err := h.svc.GenerateFromText(t.Context(), photosynthesisRequest())

	var ae *quiz.AIServiceError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "timeout", ae.Kind)
	assert.Equal(t, 3, ae.Attempts)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestGenerateFromText_RejectsBeforeWork(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*quiz.GenerationRequest)
		wantErr any
		task    bool
	}{
		{"empty content", func(r *quiz.GenerationRequest) { r.Content = "  " }, &quiz.ValidationError{}, false},
		{"too many questions", func(r *quiz.GenerationRequest) { r.NumberOfQuestions = 51 }, &quiz.ValidationError{}, false},
		{"unknown user", func(r *quiz.GenerationRequest) { r.UserID = "ghost" }, &quiz.NotFoundError{}, true},
		{"suspended user", func(r *quiz.GenerationRequest) { r.UserID = "banned" }, &quiz.AuthorizationError{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, []llm.MockResponse{{Text: mcQuizJSON(5)}})
			req := photosynthesisRequest()
			tt.mutate(&req)

			_, err := h.svc.GenerateFromText(t.Context(), req)
			require.Error(t, err)
			switch tt.wantErr.(type) {
			case *quiz.ValidationError:
				var ve *quiz.ValidationError
				assert.ErrorAs(t, err, &ve)
			case *quiz.NotFoundError:
				assert.True(t, quiz.IsNotFound(err))
			case *quiz.AuthorizationError:
				var ae *quiz.AuthorizationError
				assert.ErrorAs(t, err, &ae)
			}

			assert.Equal(t, 0, h.mock.CallCount())
			assert.Equal(t, tt.task, len(h.status.statuses()) > 0)
		})
	}
}

func TestGenerateFromText_SaveFailureReleasesQuota(t *testing.T) {
	h := newHarness(t, []llm.MockResponse{{Text: mcQuizJSON(5)}})
	h.store.saveErr = errors.New("disk full")

	_, err := h.svc.GenerateFromText(t.Context(), photosynthesisRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, h.store.usageOf("u1"))
	assert.Equal(t, 1, h.store.releaseCalls)
}

func TestGenerateFromText_ConcurrentQuota(t *testing.T) {
	const ceiling = 3
	responses := make([]llm.MockResponse, 10)
	for i := range responses {
		responses[i] = llm.MockResponse{Text: mcQuizJSON(5)}
	}
	h := newHarness(t, responses, withCeiling(quiz.RoleTeacher, ceiling))

	errs := make(chan error, 10)
	for range 10 {
		go func() {
			_, err := h.svc.GenerateFromText(context.Background(), photosynthesisRequest())
			errs <- err
		}()
	}

	ok, limited := 0, 0
	for range 10 {
		err := <-errs
		switch {
		case err == nil:
			ok++
		case errors.Is(err, quiz.ErrQuotaExceeded):
			limited++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, ceiling, ok)
	assert.Equal(t, 10-ceiling, limited)
	assert.Equal(t, ceiling, h.store.usageOf("u1"))
	assert.Equal(t, ceiling, h.mock.CallCount())
}

func TestGenerateFromText_PromptCached(t *testing.T) {
	h := newHarness(t, []llm.MockResponse{{Text: mcQuizJSON(5)}, {Text: mcQuizJSON(5)}})

	_, err := h.svc.GenerateFromText(t.Context(), photosynthesisRequest())
	require.NoError(t, err)
	_, err = h.svc.GenerateFromText(t.Context(), photosynthesisRequest())
	require.NoError(t, err)

	assert.EqualValues(t, 1, h.svc.prompts.Builds())
	require.Len(t, h.mock.Calls, 2)
	assert.Equal(t, h.mock.Calls[0].Messages, h.mock.Calls[1].Messages)
	assert.True(t, strings.Contains(h.mock.Calls[0].Messages[0].Content, "Number of questions: 5"))
}
