package generation

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/prompt"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/quizparse"
	"github.com/abhisek/quizgen/internal/tasks"
)

// RegenerateParams configure a partial regeneration.
type RegenerateParams struct {
	UserID string

	// Difficulty overrides the quiz difficulty for the new questions.
	Difficulty quiz.Difficulty

	// SourceContent is optional source material; only an excerpt is sent.
	SourceContent string
}

func permissionKey(quizID, userID string) string {
	return fmt.Sprintf("perm:%s:%s", quizID, userID)
}

// RegenerateQuestions replaces the questions at indices with freshly
// generated ones of the same type. All other questions keep their position
// and value. Regeneration does not consume generation quota.
func (s *Service) RegenerateQuestions(ctx context.Context, quizID string, indices []int, params RegenerateParams) (*quiz.Quiz, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, &quiz.ValidationError{Field: "userId", Reason: "userId is required"}
	}
	if params.Difficulty != "" && !params.Difficulty.Valid() {
		return nil, &quiz.ValidationError{Field: "difficulty", Reason: fmt.Sprintf("unsupported difficulty %q", params.Difficulty)}
	}

	req := quiz.GenerationRequest{UserID: params.UserID, Difficulty: params.Difficulty}
	r, tctx := s.startRun(ctx, params.UserID, tasks.KindRegeneration, req)
	q, err := s.regenerate(tctx, r, quizID, indices, params)
	if err != nil {
		return nil, r.fail(ctx, ActionRegenerationFailed, err)
	}
	return q, nil
}

func (s *Service) regenerate(ctx context.Context, r *run, quizID string, indices []int, params RegenerateParams) (*quiz.Quiz, error) {
	existing, err := s.quizzes.FindQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEdit(ctx, existing, params.UserID); err != nil {
		return nil, err
	}
	if err := validateIndices(indices, len(existing.Questions)); err != nil {
		return nil, err
	}

	if err := r.advance(tasks.StatusBuildingPrompt, "building regeneration prompt"); err != nil {
		return nil, err
	}
	difficulty := existing.Difficulty
	if params.Difficulty != "" {
		difficulty = params.Difficulty
	}
	targets := make([]prompt.Target, len(indices))
	types := make([]quiz.QuestionType, len(indices))
	for i, idx := range indices {
		old := existing.Questions[idx]
		targets[i] = prompt.Target{Index: idx, Text: old.Text, Type: old.Type}
		types[i] = old.Type
	}
	text := s.prompts.BuildRegeneration(ctx, prompt.RegenerationParams{
		Title:         existing.Title,
		Language:      existing.Language,
		Difficulty:    difficulty,
		SourceExcerpt: params.SourceContent,
		Targets:       targets,
	})

	if err := r.advance(tasks.StatusGenerating, fmt.Sprintf("regenerating %d question(s)", len(indices))); err != nil {
		return nil, err
	}
	res, err := s.ai.Invoke(llm.WithPurpose(ctx, "quiz.regenerate"), text)
	if err != nil {
		if r.cancelled() {
			return nil, &quiz.CancelledError{TaskID: r.id}
		}
		return nil, err
	}

	if err := r.advance(tasks.StatusParsing, "parsing model output"); err != nil {
		return nil, err
	}
	replacements, err := quizparse.ParseQuestions(res.Text, types)
	if err != nil {
		return nil, err
	}

	if err := r.advance(tasks.StatusEnhancing, "splicing questions"); err != nil {
		return nil, err
	}
	updated := *existing
	updated.Questions = splice(existing.Questions, indices, replacements)
	updated.Version = existing.Version + 1
	updated.UpdatedAt = s.now()
	updated.Statistics = quiz.ComputeStatistics(updated.Questions)

	model := res.Model
	if model == "" {
		model = s.ai.ModelID()
	}
	meta := existing.GenerationMetadata
	meta.Regenerations = append(slices.Clip(meta.Regenerations), quiz.RegenerationRecord{
		GenerationID: uuid.NewString(),
		Indices:      slices.Clone(indices),
		UserID:       params.UserID,
		Model:        model,
		At:           updated.UpdatedAt,
	})
	updated.GenerationMetadata = meta

	if err := s.quizzes.UpdateQuestions(ctx, &updated); err != nil {
		if r.cancelled() {
			s.restoreQuiz(ctx, r, existing)
			return nil, &quiz.CancelledError{TaskID: r.id}
		}
		return nil, fmt.Errorf("update quiz: %w", err)
	}

	details := usageDetails(res, model)
	if err := r.commit(details); err != nil {
		s.restoreQuiz(ctx, r, existing)
		return nil, err
	}
	s.invalidateQuiz(ctx, quizID)

	r.complete(ctx, ActionRegenerated, quizID, details)
	return &updated, nil
}

// restoreQuiz writes back the questions a cancelled regeneration replaced.
func (s *Service) restoreQuiz(ctx context.Context, r *run, previous *quiz.Quiz) {
	if err := s.quizzes.UpdateQuestions(context.WithoutCancel(ctx), previous); err != nil {
		r.log.WithError(err).WithField("quiz_id", previous.ID).Error("failed to restore quiz of cancelled task")
	}
}

// splice returns a copy of questions with replacements[i] at indices[i].
func splice(questions []quiz.Question, indices []int, replacements []quiz.Question) []quiz.Question {
	out := slices.Clone(questions)
	for i, idx := range indices {
		out[idx] = replacements[i]
	}
	return out
}

func validateIndices(indices []int, n int) error {
	if len(indices) == 0 {
		return &quiz.ValidationError{Field: "indices", Reason: "at least one question index is required"}
	}
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return &quiz.ValidationError{Field: "indices", Reason: fmt.Sprintf("index %d is out of range [0, %d)", idx, n)}
		}
		if seen[idx] {
			return &quiz.ValidationError{Field: "indices", Reason: fmt.Sprintf("index %d is listed twice", idx)}
		}
		seen[idx] = true
	}
	return nil
}

// checkEdit allows the owner and collaborators. Collaborator lookups are
// cached per quiz and user.
func (s *Service) checkEdit(ctx context.Context, q *quiz.Quiz, userID string) error {
	if q.UserID == userID {
		return nil
	}

	key := permissionKey(q.ID, userID)
	allowed, cached := false, false
	if v, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("permission cache read failed")
	} else if ok {
		allowed, cached = v.(bool)
	}

	if !cached {
		var err error
		allowed, err = s.quizzes.CheckCollaborator(ctx, q.ID, userID)
		if err != nil {
			return fmt.Errorf("check collaborator: %w", err)
		}
		if err := s.cache.Set(ctx, key, allowed, s.cfg.PermissionCacheTTL); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("permission cache write failed")
		}
	}

	if !allowed {
		return &quiz.AuthorizationError{UserID: userID, Action: "edit", Resource: "quiz " + q.ID}
	}
	return nil
}

// invalidateQuiz drops cached permission and detail entries of a quiz.
func (s *Service) invalidateQuiz(ctx context.Context, quizID string) {
	for _, pattern := range []string{"perm:" + quizID + ":*", "quiz:" + quizID + "*"} {
		if _, err := s.cache.InvalidatePattern(ctx, pattern); err != nil {
			s.log.WithError(err).WithField("pattern", pattern).Warn("cache invalidation failed")
		}
	}
}
