package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/prompt"
	"github.com/abhisek/quizgen/internal/quiz"
)

func TestEstimateGeneration_Small(t *testing.T) {
	h := newHarness(t, nil)

	e := h.svc.EstimateGeneration(t.Context(), prompt.ParamsFromRequest(photosynthesisRequest()))

	assert.Equal(t, 5*120, e.OutputTokens)
	assert.Positive(t, e.InputTokens)
	assert.Equal(t, e.InputTokens+e.OutputTokens, e.EstimatedTokens)
	assert.Equal(t, 2*time.Second+7500*time.Millisecond, e.EstimatedTime)
	assert.Equal(t, ComplexityLow, e.Complexity)
	assert.Equal(t, "mock", e.Model)
	assert.False(t, e.CostKnown, "mock model has no pricing")
}

func TestEstimateGeneration_LargeHardEssay(t *testing.T) {
	h := newHarness(t, nil)

	e := h.svc.EstimateGeneration(t.Context(), prompt.Params{
		Content:           strings.Repeat("The industrial revolution changed labour. ", 300),
		QuestionType:      quiz.TypeEssay,
		NumberOfQuestions: 30,
		Difficulty:        quiz.DifficultyHard,
	})

	assert.Equal(t, ComplexityHigh, e.Complexity)
	require.Len(t, e.Recommendations, 3)
	assert.Contains(t, e.Recommendations[0], "batches of 25")
	assert.Contains(t, e.Recommendations[1], "Long content")
	assert.Contains(t, e.Recommendations[2], "reviewed by a teacher")
}

func TestEstimateGeneration_KnownModelCost(t *testing.T) {
	inv := &stubInvoker{model: "gemini-2.0-flash"}
	h := newHarness(t, nil, withInvoker(inv))

	e := h.svc.EstimateGeneration(t.Context(), prompt.ParamsFromRequest(photosynthesisRequest()))
	require.True(t, e.CostKnown)
	want := llm.LookupCost("gemini-2.0-flash").Cost(e.InputTokens, e.OutputTokens)
	assert.InDelta(t, want, e.EstimatedCost, 1e-12)
}

func TestEstimateGeneration_WarmsPromptCache(t *testing.T) {
	h := newHarness(t, []llm.MockResponse{{Text: mcQuizJSON(5)}})

	h.svc.EstimateGeneration(t.Context(), prompt.ParamsFromRequest(photosynthesisRequest()))
	_, err := h.svc.GenerateFromText(t.Context(), photosynthesisRequest())
	require.NoError(t, err)

	assert.EqualValues(t, 1, h.svc.prompts.Builds())
}

type stubInvoker struct {
	model string
	err   error
	calls int
}

func (s *stubInvoker) Invoke(_ context.Context, _ string) (*llm.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Result{Text: `{"status": "ok"}`, Model: s.model, Attempts: 1}, nil
}

func (s *stubInvoker) ModelID() string      { return s.model }
func (s *stubInvoker) ProviderName() string { return "stub" }

func TestCheckAIServiceHealth(t *testing.T) {
	h := newHarness(t, []llm.MockResponse{{Text: `{"status": "ok"}`}})

	health := h.svc.CheckAIServiceHealth(t.Context())
	assert.Equal(t, HealthHealthy, health.Status)
	assert.Equal(t, "mock", health.Model)
	assert.Equal(t, "mock", health.Provider)
	assert.Empty(t, health.Error)
	require.Len(t, h.mock.Calls, 1)
	assert.Contains(t, h.mock.Calls[0].Messages[0].Content, `"status": "ok"`)
}

func TestCheckAIServiceHealth_Unhealthy(t *testing.T) {
	inv := &stubInvoker{model: "m", err: &llm.InvokeError{Attempts: 1, Err: &llm.Error{Kind: llm.KindPermissionDenied, Err: errors.New("bad key")}}}
	h := newHarness(t, nil, withInvoker(inv))

	health := h.svc.CheckAIServiceHealth(t.Context())
	assert.Equal(t, HealthUnhealthy, health.Status)
	assert.Contains(t, health.Error, "bad key")
	assert.Equal(t, 1, inv.calls)
}

func TestQuotaStatus(t *testing.T) {
	h := newHarness(t, []llm.MockResponse{{Text: mcQuizJSON(5)}}, withCeiling(quiz.RoleStudent, 4))

	st, err := h.svc.QuotaStatus(t.Context(), "u2")
	require.NoError(t, err)
	assert.Equal(t, QuotaStatus{
		UserID:    "u2",
		Role:      quiz.RoleStudent,
		Limit:     4,
		Used:      0,
		Remaining: 4,
		Saved:     0,
		ResetsAt:  time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
	}, st)

	// Served from cache until a generation invalidates it.
	h.store.setUsage("u2", 2)
	st, err = h.svc.QuotaStatus(t.Context(), "u2")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Used)

	req := photosynthesisRequest()
	req.UserID = "u2"
	_, err = h.svc.GenerateFromText(t.Context(), req)
	require.NoError(t, err)

	st, err = h.svc.QuotaStatus(t.Context(), "u2")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Used)
	assert.Equal(t, 1, st.Remaining)
	assert.Equal(t, 1, st.Saved)

	_, err = h.svc.QuotaStatus(t.Context(), "ghost")
	assert.True(t, quiz.IsNotFound(err))
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{}, DefaultConfig())
	assert.Error(t, err)
}

func TestConfigCeiling(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 200, cfg.Ceiling(quiz.RoleAdmin))
	assert.Equal(t, 50, cfg.Ceiling(quiz.RoleTeacher))
	assert.Equal(t, 10, cfg.Ceiling(quiz.RoleStudent))
	assert.Equal(t, 10, cfg.Ceiling(quiz.Role("guest")))
}
