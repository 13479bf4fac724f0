package generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/prompt"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/quizparse"
	"github.com/abhisek/quizgen/internal/tasks"
)

// GenerateFromText turns req into a persisted quiz.
//
// A task is registered before any other work so that status and cancel
// requests always find it. The user's daily quota is reserved before the
// model is called and released on every failure, so exactly one unit is
// counted per persisted quiz. If the task is cancelled before it completes,
// including while the quiz is being saved, nothing is kept and
// *quiz.CancelledError is returned.
func (s *Service) GenerateFromText(ctx context.Context, req quiz.GenerationRequest) (*quiz.Quiz, error) {
	req, err := quiz.NewGenerationRequest(req)
	if err != nil {
		return nil, err
	}

	r, tctx := s.startRun(ctx, req.UserID, tasks.KindGeneration, req)
	q, err := s.generate(tctx, r, req)
	if err != nil {
		return nil, r.fail(ctx, ActionGenerationFailed, err)
	}
	return q, nil
}

func (s *Service) generate(ctx context.Context, r *run, req quiz.GenerationRequest) (*quiz.Quiz, error) {
	user, err := s.activeUser(ctx, req.UserID, "generate")
	if err != nil {
		return nil, err
	}

	day := s.day(r.started)
	ceiling := s.cfg.Ceiling(user.Role)
	used, ok, err := s.quota.ReserveGeneration(ctx, user.ID, day, ceiling)
	if err != nil {
		return nil, fmt.Errorf("reserve quota: %w", err)
	}
	s.forgetUsage(ctx, user.ID, day)
	if !ok {
		return nil, &quiz.ValidationError{
			Field:  "quota",
			Reason: fmt.Sprintf("daily limit of %d generations reached (%d used)", ceiling, used),
			Err:    quiz.ErrQuotaExceeded,
		}
	}

	committed := false
	defer func() {
		if !committed {
			s.releaseQuota(ctx, r, day)
		}
	}()

	if err := r.advance(tasks.StatusBuildingPrompt, "building prompt"); err != nil {
		return nil, err
	}
	text := s.prompts.Build(ctx, prompt.ParamsFromRequest(req))

	if err := r.advance(tasks.StatusGenerating, "calling "+s.ai.ProviderName()); err != nil {
		return nil, err
	}
	res, err := s.ai.Invoke(llm.WithPurpose(ctx, "quiz.generate"), text)
	if err != nil {
		if r.cancelled() {
			return nil, &quiz.CancelledError{TaskID: r.id}
		}
		return nil, err
	}

	if err := r.advance(tasks.StatusParsing, "parsing model output"); err != nil {
		return nil, err
	}
	parsed, err := quizparse.Parse(res.Text, req.QuestionType, req.NumberOfQuestions)
	if err != nil {
		return nil, err
	}

	if err := r.advance(tasks.StatusEnhancing, "adding metadata"); err != nil {
		return nil, err
	}
	q := s.assemble(r, req, text, res, parsed)

	if err := s.quizzes.SaveQuiz(ctx, q); err != nil {
		if r.cancelled() {
			s.discardQuiz(ctx, r, q.ID)
			return nil, &quiz.CancelledError{TaskID: r.id}
		}
		return nil, fmt.Errorf("save quiz: %w", err)
	}

	details := usageDetails(res, q.GenerationMetadata.Model)
	if err := r.commit(details); err != nil {
		s.discardQuiz(ctx, r, q.ID)
		return nil, err
	}
	committed = true

	r.complete(ctx, ActionGenerated, q.ID, details)
	return q, nil
}

// discardQuiz deletes a quiz whose task was cancelled during the save.
func (s *Service) discardQuiz(ctx context.Context, r *run, quizID string) {
	if err := s.quizzes.DeleteQuiz(context.WithoutCancel(ctx), quizID); err != nil {
		r.log.WithError(err).WithField("quiz_id", quizID).Error("failed to discard quiz of cancelled task")
	}
}

func (s *Service) assemble(r *run, req quiz.GenerationRequest, text string, res *llm.Result, parsed *quizparse.Result) *quiz.Quiz {
	now := s.now()

	title := parsed.Title
	if req.Title != "" {
		title = req.Title
	}
	model := res.Model
	if model == "" {
		model = s.ai.ModelID()
	}

	return &quiz.Quiz{
		ID:          uuid.NewString(),
		Title:       title,
		Description: parsed.Description,
		Questions:   parsed.Questions,
		UserID:      req.UserID,
		Source:      req.Source,
		FileName:    req.FileName,
		Language:    req.Language,
		Difficulty:  req.Difficulty,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
		GenerationMetadata: quiz.GenerationMetadata{
			GenerationID: uuid.NewString(),
			Prompt:       text,
			Parameters:   req.Parameters(),
			Model:        model,
			Provider:     s.ai.ProviderName(),
			GeneratedAt:  now,
			DurationMs:   now.Sub(r.started).Milliseconds(),
			InputTokens:  res.Usage.InputTokens,
			OutputTokens: res.Usage.OutputTokens,
			Attempts:     res.Attempts,
		},
		Statistics: quiz.ComputeStatistics(parsed.Questions),
	}
}

// activeUser loads userID and rejects suspended accounts.
func (s *Service) activeUser(ctx context.Context, userID, action string) (*quiz.User, error) {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == quiz.UserSuspended {
		return nil, &quiz.AuthorizationError{UserID: userID, Action: action, Resource: "quizzes"}
	}
	return user, nil
}

func (s *Service) releaseQuota(ctx context.Context, r *run, day string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.quota.ReleaseGeneration(ctx, r.userID, day); err != nil {
		r.log.WithError(err).Error("failed to release quota reservation")
	}
	s.forgetUsage(ctx, r.userID, day)
}
