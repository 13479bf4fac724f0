package quizparse

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizgen/internal/quiz"
)

func mcQuestion(i int) string {
	return fmt.Sprintf(`{"text": "Question %d?", "type": "multiple_choice", "options": ["a", "b", "c", "d"], "correctAnswerIndex": %d, "explanation": "because"}`, i, i%4)
}

func mcQuiz(n int) string {
	qs := make([]string, n)
	for i := range qs {
		qs[i] = mcQuestion(i)
	}
	return `{"title": "Photosynthesis", "description": "Basics", "questions": [` + strings.Join(qs, ",") + `]}`
}

func requireValidationError(t *testing.T, err error, field string) *quiz.ValidationError {
	t.Helper()
	var ve *quiz.ValidationError
	require.True(t, errors.As(err, &ve), "want *quiz.ValidationError, got %T: %v", err, err)
	if field != "" {
		assert.Equal(t, field, ve.Field)
	}
	return ve
}

func TestParse_HappyPath(t *testing.T) {
	res, err := Parse(mcQuiz(5), quiz.TypeMultipleChoice, 5)
	require.NoError(t, err)

	assert.Equal(t, "Photosynthesis", res.Title)
	assert.Equal(t, "Basics", res.Description)
	require.Len(t, res.Questions, 5)
	for i, q := range res.Questions {
		assert.Len(t, q.Options, 4)
		require.NotNil(t, q.CorrectAnswerIndex)
		assert.Equal(t, i%4, *q.CorrectAnswerIndex)
	}
}

func TestParse_FencesAndProse(t *testing.T) {
	raw := "Sure! Here is your quiz:\n```json\n" + mcQuiz(2) + "\n```\nLet me know if you need more."
	res, err := Parse(raw, quiz.TypeMultipleChoice, 2)
	require.NoError(t, err)
	assert.Len(t, res.Questions, 2)
}

func TestParse_FillsMissingType(t *testing.T) {
	raw := `{"title": "T", "questions": [{"text": "Sky is blue", "correctAnswer": true}]}`
	res, err := Parse(raw, quiz.TypeTrueFalse, 1)
	require.NoError(t, err)
	assert.Equal(t, quiz.TypeTrueFalse, res.Questions[0].Type)
	assert.True(t, *res.Questions[0].CorrectAnswer)
}

func TestParse_TruncatesSurplus(t *testing.T) {
	res, err := Parse(mcQuiz(7), quiz.TypeMultipleChoice, 5)
	require.NoError(t, err)
	assert.Len(t, res.Questions, 5)
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"not json", "I cannot help with that.", "response"},
		{"unterminated", `{"title": "T", "questions": [`, "response"},
		{"invalid json", `{"title": "T", "questions": [1,]}`, "response"},
		{"missing questions", `{"title": "T"}`, "questions"},
		{"questions not array", `{"title": "T", "questions": "none"}`, "questions"},
		{"missing title", `{"questions": []}`, "title"},
		{"blank title", `{"title": "   ", "questions": []}`, "title"},
		{"too few", mcQuiz(3), "questions"},
		{"wrong type", `{"title": "T", "questions": [{"text": "x", "type": "essay"}]}`, "questions[0].type"},
		{"three options", `{"title": "T", "questions": [{"text": "x", "options": ["a","b","c"], "correctAnswerIndex": 0}]}`, "questions[0]"},
		{"index out of range", `{"title": "T", "questions": [{"text": "x", "options": ["a","b","c","d"], "correctAnswerIndex": 4}]}`, "questions[0]"},
		{"fractional index", `{"title": "T", "questions": [{"text": "x", "options": ["a","b","c","d"], "correctAnswerIndex": 1.5}]}`, "questions[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := 1
			if tt.name == "too few" {
				count = 5
			}
			_, err := Parse(tt.raw, quiz.TypeMultipleChoice, count)
			requireValidationError(t, err, tt.field)
		})
	}
}

func TestParse_StringBooleanRejected(t *testing.T) {
	raw := `{"title": "T", "questions": [{"text": "x", "type": "true_false", "correctAnswer": "true"}]}`
	_, err := Parse(raw, quiz.TypeTrueFalse, 1)
	ve := requireValidationError(t, err, "questions[0]")
	assert.Contains(t, ve.Reason, "correctAnswer must be a boolean")
}

func TestParseQuestions(t *testing.T) {
	raw := "```json\n" + `{"questions": [` + mcQuestion(1) + `, {"text": "Water boils at 100C at sea level", "type": "true_false", "correctAnswer": true}]}` + "\n```"
	qs, err := ParseQuestions(raw, []quiz.QuestionType{quiz.TypeMultipleChoice, quiz.TypeTrueFalse})
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, quiz.TypeTrueFalse, qs[1].Type)

	_, err = ParseQuestions(`{"questions": []}`, []quiz.QuestionType{quiz.TypeEssay})
	requireValidationError(t, err, "")

	_, err = ParseQuestions(`{"questions": [`+mcQuestion(0)+`]}`, []quiz.QuestionType{quiz.TypeTrueFalse})
	requireValidationError(t, err, "questions[0].type")
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"nested", `x {"a":{"b":2}} y {"c":3}`, `{"a":{"b":2}}`},
		{"brace in string", `{"t":"use } and {"}`, `{"t":"use } and {"}`},
		{"escaped quote", `{"t":"say \"}\" now"} tail`, `{"t":"say \"}\" now"}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Extract("no json here")
	assert.ErrorIs(t, err, errNoObject)
	_, err = Extract(`{"a": {"b": 1}`)
	assert.ErrorIs(t, err, errUnbalanced)
}
