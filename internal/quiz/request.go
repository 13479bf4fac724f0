package quiz

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxContentLength is the maximum number of characters accepted as
	// generation content.
	MaxContentLength = 15000

	MinQuestions = 1
	MaxQuestions = 50

	DefaultLanguage = "en"
)

// GenerationRequest holds everything needed to generate a quiz. It is passed
// by value and never mutated after construction.
type GenerationRequest struct {
	Content           string
	QuestionType      QuestionType
	NumberOfQuestions int
	Difficulty        Difficulty
	Language          string
	UserID            string
	Source            Source
	FileName          string

	// Title overrides the title proposed by the model when set.
	Title string

	// Topic is an optional short subject label used in the prompt.
	Topic string
}

// NewGenerationRequest normalizes defaults and validates the result.
func NewGenerationRequest(r GenerationRequest) (GenerationRequest, error) {
	r = r.withDefaults()
	if err := r.Validate(); err != nil {
		return GenerationRequest{}, err
	}
	return r, nil
}

func (r GenerationRequest) withDefaults() GenerationRequest {
	r.Content = strings.TrimSpace(r.Content)
	r.Language = strings.ToLower(strings.TrimSpace(r.Language))
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.Source == "" {
		r.Source = SourceText
	}
	return r
}

// Validate checks the request against the accepted ranges. It returns a
// *ValidationError naming the first offending field.
func (r GenerationRequest) Validate() error {
	content := strings.TrimSpace(r.Content)
	switch {
	case content == "":
		return &ValidationError{Field: "content", Reason: "content is required"}
	case utf8.RuneCountInString(content) > MaxContentLength:
		return &ValidationError{Field: "content", Reason: "content exceeds 15000 characters"}
	case !r.QuestionType.Valid():
		return &ValidationError{Field: "questionType", Reason: "unsupported question type " + quote(string(r.QuestionType))}
	case r.NumberOfQuestions < MinQuestions || r.NumberOfQuestions > MaxQuestions:
		return &ValidationError{Field: "numberOfQuestions", Reason: "numberOfQuestions must be between 1 and 50"}
	case !r.Difficulty.Valid():
		return &ValidationError{Field: "difficulty", Reason: "unsupported difficulty " + quote(string(r.Difficulty))}
	case strings.TrimSpace(r.UserID) == "":
		return &ValidationError{Field: "userId", Reason: "userId is required"}
	}

	source := r.Source
	if source == "" {
		source = SourceText
	}
	if !source.Valid() {
		return &ValidationError{Field: "source", Reason: "unsupported source " + quote(string(r.Source))}
	}
	if source == SourceFile && strings.TrimSpace(r.FileName) == "" {
		return &ValidationError{Field: "fileName", Reason: "fileName is required for file sources"}
	}
	return nil
}

// Parameters returns the parameter echo stored in generation metadata.
func (r GenerationRequest) Parameters() Parameters {
	r = r.withDefaults()
	return Parameters{
		QuestionType:      r.QuestionType,
		NumberOfQuestions: r.NumberOfQuestions,
		Difficulty:        r.Difficulty,
		Language:          r.Language,
		Source:            r.Source,
		FileName:          r.FileName,
		ContentLength:     utf8.RuneCountInString(r.Content),
	}
}

func quote(s string) string {
	return `"` + s + `"`
}
