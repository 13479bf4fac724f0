package generation

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/prompt"
	"github.com/abhisek/quizgen/internal/quiz"
)

// Complexity buckets an estimate.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Estimate predicts the cost of a generation before running it.
type Estimate struct {
	EstimatedTime   time.Duration
	InputTokens     int
	OutputTokens    int
	EstimatedTokens int

	// EstimatedCost is in USD. CostKnown is false for models missing from
	// the pricing table.
	EstimatedCost float64
	CostKnown     bool
	Model         string

	Complexity      Complexity
	Recommendations []string
}

const (
	charsPerToken = 4
	baseLatency   = 2 * time.Second
	batchLimit    = 25
	longContent   = 10000
)

var outputTokensPerQuestion = map[quiz.QuestionType]int{
	quiz.TypeMultipleChoice: 120,
	quiz.TypeTrueFalse:      60,
	quiz.TypeShortAnswer:    80,
	quiz.TypeEssay:          300,
}

var secondsPerQuestion = map[quiz.QuestionType]float64{
	quiz.TypeMultipleChoice: 1.5,
	quiz.TypeTrueFalse:      1,
	quiz.TypeShortAnswer:    1.5,
	quiz.TypeEssay:          4,
}

var difficultyWeight = map[quiz.Difficulty]float64{
	quiz.DifficultyEasy:   1,
	quiz.DifficultyMedium: 1.5,
	quiz.DifficultyHard:   2,
}

// EstimateGeneration predicts tokens, cost and latency for p. The prompt is
// built through the cache, so a later generation with the same parameters
// reuses it.
func (s *Service) EstimateGeneration(ctx context.Context, p prompt.Params) Estimate {
	p = p.Normalize()
	n := max(p.NumberOfQuestions, 1)
	text := s.prompts.Build(ctx, p)

	in := int(math.Ceil(float64(utf8.RuneCountInString(prompt.SystemPrompt)+utf8.RuneCountInString(text)) / charsPerToken))
	out := outputTokensPerQuestion[p.QuestionType] * n

	e := Estimate{
		EstimatedTime:   baseLatency + time.Duration(secondsPerQuestion[p.QuestionType]*float64(n)*float64(time.Second)),
		InputTokens:     in,
		OutputTokens:    out,
		EstimatedTokens: in + out,
		Model:           s.ai.ModelID(),
	}
	if cost := llm.LookupCost(e.Model); cost != nil {
		e.EstimatedCost = cost.Cost(in, out)
		e.CostKnown = true
	}

	score := float64(n) * secondsPerQuestion[p.QuestionType] * difficultyWeight[p.Difficulty]
	switch {
	case score >= 40:
		e.Complexity = ComplexityHigh
	case score >= 12:
		e.Complexity = ComplexityMedium
	default:
		e.Complexity = ComplexityLow
	}

	contentLen := utf8.RuneCountInString(p.Content)
	if n > batchLimit {
		e.Recommendations = append(e.Recommendations,
			fmt.Sprintf("Split into batches of %d or fewer questions for faster, more reliable results.", batchLimit))
	}
	if contentLen > longContent {
		e.Recommendations = append(e.Recommendations,
			"Long content increases latency and cost; consider trimming it to the key sections.")
	}
	if contentLen < n*50 {
		e.Recommendations = append(e.Recommendations,
			fmt.Sprintf("The content may be too short to support %d distinct questions.", n))
	}
	if p.QuestionType == quiz.TypeEssay && p.Difficulty == quiz.DifficultyHard {
		e.Recommendations = append(e.Recommendations,
			"Hard essay questions should be reviewed by a teacher before use.")
	}
	return e
}
