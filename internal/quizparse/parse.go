// Package quizparse turns raw model output into validated quiz questions.
// Every failure is a *quiz.ValidationError; callers must not retry them.
package quizparse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/quizgen/internal/quiz"
)

// Result is a parsed generation response.
type Result struct {
	Title       string
	Description string
	Questions   []quiz.Question
}

// Parse decodes a full quiz response and checks that it holds exactly count
// questions of type typ. Questions without a type get typ. Surplus questions
// are dropped.
func Parse(raw string, typ quiz.QuestionType, count int) (*Result, error) {
	doc, err := decode(raw, "quiz")
	if err != nil {
		return nil, err
	}

	types := make([]quiz.QuestionType, count)
	for i := range types {
		types[i] = typ
	}
	questions, err := convertQuestions(doc["questions"].([]any), types)
	if err != nil {
		return nil, err
	}

	desc, _ := doc["description"].(string)
	return &Result{
		Title:       strings.TrimSpace(doc["title"].(string)),
		Description: strings.TrimSpace(desc),
		Questions:   questions,
	}, nil
}

// ParseQuestions decodes a {"questions": [...]} response whose i-th question
// must have type types[i].
func ParseQuestions(raw string, types []quiz.QuestionType) ([]quiz.Question, error) {
	doc, err := decode(raw, "questions")
	if err != nil {
		return nil, err
	}
	return convertQuestions(doc["questions"].([]any), types)
}

func decode(raw, schema string) (map[string]any, error) {
	body, err := Extract(raw)
	if err != nil {
		return nil, &quiz.ValidationError{Field: "response", Reason: err.Error(), Err: err}
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(body))
	if err != nil {
		return nil, &quiz.ValidationError{Field: "response", Reason: "invalid JSON: " + err.Error(), Err: err}
	}

	if err := validateEnvelope(schema, doc); err != nil {
		return nil, &quiz.ValidationError{Field: envelopeField(doc), Reason: "response does not match the expected shape", Err: err}
	}
	return doc.(map[string]any), nil
}

// envelopeField names the top-level field most likely responsible for a
// schema failure.
func envelopeField(doc any) string {
	m, ok := doc.(map[string]any)
	if !ok {
		return "response"
	}
	if title, ok := m["title"].(string); !ok || strings.TrimSpace(title) == "" {
		if _, has := m["questions"]; has {
			return "title"
		}
	}
	return "questions"
}

func convertQuestions(items []any, types []quiz.QuestionType) ([]quiz.Question, error) {
	if len(items) < len(types) {
		return nil, &quiz.ValidationError{
			Field:  "questions",
			Reason: fmt.Sprintf("expected %d questions, got %d", len(types), len(items)),
		}
	}
	items = items[:len(types)]

	out := make([]quiz.Question, len(items))
	for i, item := range items {
		field := fmt.Sprintf("questions[%d]", i)

		q, problems := convertQuestion(item.(map[string]any))
		if q.Type == "" {
			q.Type = types[i]
		}
		if q.Type != types[i] {
			return nil, &quiz.ValidationError{
				Field:  field + ".type",
				Reason: fmt.Sprintf("expected %s, got %s", types[i], q.Type),
			}
		}

		problems = append(problems, ValidateQuestion(q).Errors...)
		if len(problems) > 0 {
			return nil, &quiz.ValidationError{Field: field, Reason: strings.Join(problems, "; ")}
		}
		out[i] = q
	}
	return out, nil
}

// convertQuestion copies the fields of a decoded question, reporting values
// of the wrong JSON type instead of failing the whole decode.
func convertQuestion(m map[string]any) (quiz.Question, []string) {
	var (
		q        quiz.Question
		problems []string
	)
	bad := func(field, want string) {
		problems = append(problems, fmt.Sprintf("%s must be %s", field, want))
	}

	if v, ok := m["text"]; ok {
		if s, isString := v.(string); isString {
			q.Text = strings.TrimSpace(s)
		} else {
			bad("text", "a string")
		}
	}
	if v, ok := m["type"]; ok {
		if s, isString := v.(string); isString {
			q.Type = quiz.QuestionType(strings.TrimSpace(s))
		} else {
			bad("type", "a string")
		}
	}
	if v, ok := m["options"]; ok {
		opts, ok := stringSlice(v)
		if !ok {
			bad("options", "an array of strings")
		}
		q.Options = opts
	}
	if v, ok := m["correctAnswerIndex"]; ok && v != nil {
		if n, isInt := integer(v); isInt {
			q.CorrectAnswerIndex = &n
		} else {
			bad("correctAnswerIndex", "an integer")
		}
	}
	if v, ok := m["correctAnswer"]; ok && v != nil {
		if b, isBool := v.(bool); isBool {
			q.CorrectAnswer = &b
		} else {
			bad("correctAnswer", "a boolean")
		}
	}
	if v, ok := m["correctAnswers"]; ok {
		answers, ok := stringSlice(v)
		if !ok {
			bad("correctAnswers", "an array of strings")
		}
		q.CorrectAnswers = answers
	}
	if s, ok := m["explanation"].(string); ok {
		q.Explanation = strings.TrimSpace(s)
	}
	if s, ok := m["sampleAnswer"].(string); ok {
		q.SampleAnswer = strings.TrimSpace(s)
	}
	if v, ok := m["points"]; ok {
		if n, isInt := integer(v); isInt && n > 0 {
			q.Points = n
		}
	}
	return q, problems
}

func integer(v any) (int, bool) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	n, err := num.Int64()
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func stringSlice(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, true
}
