package quizparse

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizgen/internal/quiz"
)

// Validation is the outcome of ValidateQuestion.
type Validation struct {
	IsValid bool
	Errors  []string
}

// ValidateQuestion checks that q carries the answer fields its type needs.
func ValidateQuestion(q quiz.Question) Validation {
	var errs []string

	if strings.TrimSpace(q.Text) == "" {
		errs = append(errs, "text is required")
	}

	switch q.Type {
	case quiz.TypeMultipleChoice:
		if len(q.Options) != quiz.MultipleChoiceOptions {
			errs = append(errs, fmt.Sprintf("multiple_choice needs exactly %d options, got %d", quiz.MultipleChoiceOptions, len(q.Options)))
		}
		for i, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				errs = append(errs, fmt.Sprintf("option %d is empty", i))
			}
		}
		switch {
		case q.CorrectAnswerIndex == nil:
			errs = append(errs, "correctAnswerIndex is required")
		case *q.CorrectAnswerIndex < 0 || *q.CorrectAnswerIndex >= len(q.Options):
			errs = append(errs, fmt.Sprintf("correctAnswerIndex %d is out of range", *q.CorrectAnswerIndex))
		}

	case quiz.TypeTrueFalse:
		if q.CorrectAnswer == nil {
			errs = append(errs, "correctAnswer (boolean) is required")
		}

	case quiz.TypeShortAnswer:
		n := 0
		for _, a := range q.CorrectAnswers {
			if strings.TrimSpace(a) != "" {
				n++
			}
		}
		if n == 0 {
			errs = append(errs, "short_answer needs at least one correctAnswers entry")
		}

	case quiz.TypeEssay:

	default:
		errs = append(errs, fmt.Sprintf("unsupported question type %q", q.Type))
	}

	return Validation{IsValid: len(errs) == 0, Errors: errs}
}
