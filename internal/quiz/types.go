package quiz

import "time"

// QuestionType identifies how a question is answered.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeEssay          QuestionType = "essay"
	TypeShortAnswer    QuestionType = "short_answer"
)

// QuestionTypes lists every supported question type in display order.
var QuestionTypes = []QuestionType{TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer, TypeEssay}

// Valid reports whether t is a supported question type.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeEssay, TypeShortAnswer:
		return true
	}
	return false
}

// Difficulty is the requested difficulty of a quiz.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Source records where the quiz content came from.
type Source string

const (
	SourceText Source = "text"
	SourceFile Source = "file"
)

func (s Source) Valid() bool {
	return s == SourceText || s == SourceFile
}

// MultipleChoiceOptions is the exact number of options a multiple choice
// question must carry.
const MultipleChoiceOptions = 4

// Question is a single quiz question. Which answer fields are set depends on
// Type:
//   - multiple_choice: Options and CorrectAnswerIndex
//   - true_false: CorrectAnswer
//   - short_answer: CorrectAnswers
//   - essay: none (SampleAnswer is optional guidance)
type Question struct {
	Text               string       `json:"text"`
	Type               QuestionType `json:"type"`
	Options            []string     `json:"options,omitempty"`
	CorrectAnswerIndex *int         `json:"correctAnswerIndex,omitempty"`
	CorrectAnswer      *bool        `json:"correctAnswer,omitempty"`
	CorrectAnswers     []string     `json:"correctAnswers,omitempty"`
	Explanation        string       `json:"explanation,omitempty"`
	SampleAnswer       string       `json:"sampleAnswer,omitempty"`
	Points             int          `json:"points,omitempty"`
}

// Quiz is the durable artifact produced by a generation.
type Quiz struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description,omitempty"`
	Questions          []Question         `json:"questions"`
	UserID             string             `json:"userId"`
	Source             Source             `json:"source"`
	FileName           string             `json:"fileName,omitempty"`
	Language           string             `json:"language"`
	Difficulty         Difficulty         `json:"difficulty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	Version            int                `json:"version"`
	GenerationMetadata GenerationMetadata `json:"generationMetadata"`
	Statistics         Statistics         `json:"statistics"`
}

// GenerationMetadata describes how a quiz was produced.
type GenerationMetadata struct {
	GenerationID  string               `json:"generationId"`
	Prompt        string               `json:"prompt"`
	Parameters    Parameters           `json:"parameters"`
	Model         string               `json:"model"`
	Provider      string               `json:"provider"`
	GeneratedAt   time.Time            `json:"generatedAt"`
	DurationMs    int64                `json:"durationMs"`
	InputTokens   int                  `json:"inputTokens"`
	OutputTokens  int                  `json:"outputTokens"`
	Attempts      int                  `json:"attempts"`
	Regenerations []RegenerationRecord `json:"regenerations,omitempty"`
}

// Parameters echoes the request parameters without the (possibly large)
// source content.
type Parameters struct {
	QuestionType      QuestionType `json:"questionType"`
	NumberOfQuestions int          `json:"numberOfQuestions"`
	Difficulty        Difficulty   `json:"difficulty"`
	Language          string       `json:"language"`
	Source            Source       `json:"source"`
	FileName          string       `json:"fileName,omitempty"`
	ContentLength     int          `json:"contentLength"`
}

// RegenerationRecord is appended to the metadata each time a subset of
// questions is regenerated.
type RegenerationRecord struct {
	GenerationID string    `json:"generationId"`
	Indices      []int     `json:"indices"`
	UserID       string    `json:"userId"`
	Model        string    `json:"model"`
	At           time.Time `json:"at"`
}

// Role determines a user's daily generation ceiling.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleStudent
}

// UserStatus is the account state of a user.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

// User is the subset of account data the generation pipeline needs.
type User struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}
