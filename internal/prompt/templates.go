package prompt

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizgen/internal/quiz"
)

// SystemPrompt sets the model's role for every generation call.
const SystemPrompt = `You are an experienced teacher who writes clear, accurate quiz questions.

Rules:
- Base every question strictly on the supplied content. Do not invent facts.
- Each question must be self-contained and unambiguous.
- Exactly one answer is correct unless the question type says otherwise.
- Always answer with a single JSON object and no other text. Do not use markdown fences.`

// maxExcerptRunes bounds the source excerpt embedded in regeneration prompts.
const maxExcerptRunes = 2000

var typeInstructions = map[quiz.QuestionType]string{
	quiz.TypeMultipleChoice: `- Provide exactly 4 options in "options".
- Set "correctAnswerIndex" to the 0-based index of the single correct option.
- Distractors must be plausible and reflect common misconceptions.`,
	quiz.TypeTrueFalse: `- Write a statement that is unambiguously true or false.
- Set "correctAnswer" to a JSON boolean (true or false), not a string.
- Balance true and false answers across the quiz.`,
	quiz.TypeShortAnswer: `- The answer must be a word or short phrase.
- List every acceptable answer in "correctAnswers" (at least one).`,
	quiz.TypeEssay: `- Ask an open question that requires a structured, multi-paragraph answer.
- Provide a model answer in "sampleAnswer" and the grading criteria in "explanation".`,
}

var typeExamples = map[quiz.QuestionType]string{
	quiz.TypeMultipleChoice: `{"text": "...", "type": "multiple_choice", "options": ["...", "...", "...", "..."], "correctAnswerIndex": 0, "explanation": "...", "points": 1}`,
	quiz.TypeTrueFalse:      `{"text": "...", "type": "true_false", "correctAnswer": true, "explanation": "...", "points": 1}`,
	quiz.TypeShortAnswer:    `{"text": "...", "type": "short_answer", "correctAnswers": ["...", "..."], "explanation": "...", "points": 2}`,
	quiz.TypeEssay:          `{"text": "...", "type": "essay", "sampleAnswer": "...", "explanation": "...", "points": 10}`,
}

var difficultyGuidance = map[quiz.Difficulty]string{
	quiz.DifficultyEasy:   "Test recall of facts stated directly in the content.",
	quiz.DifficultyMedium: "Test understanding: explain, compare, or apply ideas from the content.",
	quiz.DifficultyHard:   "Test analysis and synthesis: combine several ideas, reason about implications, or evaluate claims.",
}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"hi": "Hindi",
	"ja": "Japanese",
	"zh": "Chinese",
}

// languageName returns a human-readable language label for a code.
func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return fmt.Sprintf("%s (%s)", name, code)
	}
	return code
}

func composeGeneration(p Params) string {
	var b strings.Builder

	b.WriteString("Create a quiz from the content below.\n\n")

	if p.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
	} else {
		b.WriteString("Title: choose a short, descriptive title\n")
	}
	if p.Topic != "" {
		fmt.Fprintf(&b, "Topic: %s\n", p.Topic)
	}
	fmt.Fprintf(&b, "Question type: %s\n", p.QuestionType)
	fmt.Fprintf(&b, "Number of questions: %d\n", p.NumberOfQuestions)
	fmt.Fprintf(&b, "Difficulty: %s\n", p.Difficulty)
	fmt.Fprintf(&b, "Language: %s\n", languageName(p.Language))

	fmt.Fprintf(&b, "\nDifficulty guidance: %s\n", difficultyGuidance[p.Difficulty])

	fmt.Fprintf(&b, "\nRequirements for %s questions:\n%s\n", p.QuestionType, typeInstructions[p.QuestionType])

	b.WriteString("\nRespond with JSON in exactly this shape:\n")
	fmt.Fprintf(&b, "{\"title\": \"...\", \"description\": \"...\", \"questions\": [%s]}\n", typeExamples[p.QuestionType])

	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "- Return exactly %d questions, all of type %q.\n", p.NumberOfQuestions, p.QuestionType)
	fmt.Fprintf(&b, "- Write the title, questions, options and explanations in %s.\n", languageName(p.Language))
	b.WriteString("- Do not repeat questions or test the same fact twice.\n")

	b.WriteString("\nContent:\n\"\"\"\n")
	b.WriteString(p.Content)
	b.WriteString("\n\"\"\"\n")

	return b.String()
}

func composeRegeneration(p RegenerationParams) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Replace %d question(s) in an existing quiz with new, different questions.\n\n", len(p.Targets))

	fmt.Fprintf(&b, "Quiz title: %s\n", p.Title)
	fmt.Fprintf(&b, "Difficulty: %s\n", p.Difficulty)
	fmt.Fprintf(&b, "Language: %s\n", languageName(p.Language))
	if p.Difficulty != "" {
		fmt.Fprintf(&b, "\nDifficulty guidance: %s\n", difficultyGuidance[p.Difficulty])
	}

	if p.SourceExcerpt != "" {
		b.WriteString("\nSource excerpt:\n\"\"\"\n")
		b.WriteString(p.SourceExcerpt)
		b.WriteString("\n\"\"\"\n")
	}

	b.WriteString("\nQuestions to replace:\n")
	for i, t := range p.Targets {
		fmt.Fprintf(&b, "%d. [question %d, %s] %s\n", i+1, t.Index+1, t.Type, t.Text)
	}

	seen := make(map[quiz.QuestionType]bool)
	for _, t := range p.Targets {
		if seen[t.Type] {
			continue
		}
		seen[t.Type] = true
		fmt.Fprintf(&b, "\nRequirements for %s questions:\n%s\nExample: %s\n", t.Type, typeInstructions[t.Type], typeExamples[t.Type])
	}

	b.WriteString("\nRespond with JSON in exactly this shape:\n")
	b.WriteString("{\"questions\": [ ... ]}\n")

	b.WriteString("\nRules:\n")
	fmt.Fprintf(&b, "- Return exactly %d questions, in the same order as listed above.\n", len(p.Targets))
	b.WriteString("- Each replacement must have the same type as the question it replaces.\n")
	b.WriteString("- Each replacement must test a different fact than the original.\n")
	fmt.Fprintf(&b, "- Write everything in %s.\n", languageName(p.Language))

	return b.String()
}

// Excerpt truncates s to the regeneration excerpt limit on a rune boundary.
func Excerpt(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= maxExcerptRunes {
		return s
	}
	return string(r[:maxExcerptRunes])
}
