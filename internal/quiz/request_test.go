package quiz

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() GenerationRequest {
	return GenerationRequest{
		Content:           "Photosynthesis basics: plants convert light into chemical energy.",
		QuestionType:      TypeMultipleChoice,
		NumberOfQuestions: 5,
		Difficulty:        DifficultyMedium,
		Language:          "en",
		UserID:            "u1",
	}
}

func TestNewGenerationRequest_Defaults(t *testing.T) {
	r := validRequest()
	r.Language = ""
	r.Content = "  padded content  "

	got, err := NewGenerationRequest(r)
	require.NoError(t, err)
	assert.Equal(t, DefaultLanguage, got.Language)
	assert.Equal(t, SourceText, got.Source)
	assert.Equal(t, "padded content", got.Content)
}

func TestGenerationRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GenerationRequest)
		field  string
	}{
		{"empty content", func(r *GenerationRequest) { r.Content = "   " }, "content"},
		{"content too long", func(r *GenerationRequest) { r.Content = strings.Repeat("a", MaxContentLength+1) }, "content"},
		{"bad type", func(r *GenerationRequest) { r.QuestionType = "matching" }, "questionType"},
		{"zero questions", func(r *GenerationRequest) { r.NumberOfQuestions = 0 }, "numberOfQuestions"},
		{"too many questions", func(r *GenerationRequest) { r.NumberOfQuestions = 51 }, "numberOfQuestions"},
		{"bad difficulty", func(r *GenerationRequest) { r.Difficulty = "extreme" }, "difficulty"},
		{"missing user", func(r *GenerationRequest) { r.UserID = "" }, "userId"},
		{"bad source", func(r *GenerationRequest) { r.Source = "url" }, "source"},
		{"file without name", func(r *GenerationRequest) { r.Source = SourceFile }, "fileName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestGenerationRequest_ValidateBoundaries(t *testing.T) {
	r := validRequest()
	r.Content = strings.Repeat("é", MaxContentLength)
	r.NumberOfQuestions = MaxQuestions
	assert.NoError(t, r.Validate())

	r.NumberOfQuestions = MinQuestions
	assert.NoError(t, r.Validate())
}

func TestGenerationRequest_Parameters(t *testing.T) {
	r := validRequest()
	r.Source = SourceFile
	r.FileName = "notes.txt"

	p := r.Parameters()
	assert.Equal(t, TypeMultipleChoice, p.QuestionType)
	assert.Equal(t, 5, p.NumberOfQuestions)
	assert.Equal(t, "notes.txt", p.FileName)
	assert.Equal(t, len([]rune(r.Content)), p.ContentLength)
}

func TestErrors_Unwrap(t *testing.T) {
	err := &ValidationError{Field: "quota", Reason: "limit reached", Err: ErrQuotaExceeded}
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "quota: limit reached")

	assert.True(t, IsNotFound(&NotFoundError{Resource: "quiz", ID: "q1"}))
	assert.False(t, IsNotFound(errors.New("other")))

	ai := &AIServiceError{Kind: "timeout", Attempts: 3, TaskID: "t1", Err: errors.New("deadline")}
	assert.Contains(t, ai.Error(), "after 3 attempt(s)")
}
