package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/quizgen/internal/quiz"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printQuiz(w io.Writer, q *quiz.Quiz) {
	sep := strings.Repeat("─", 60)

	fmt.Fprintf(w, "%s\n", q.Title)
	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "ID:          %s (v%d)\n", q.ID, q.Version)
	fmt.Fprintf(w, "Owner:       %s\n", q.UserID)
	fmt.Fprintf(w, "Difficulty:  %s\n", q.Difficulty)
	fmt.Fprintf(w, "Language:    %s\n", q.Language)
	fmt.Fprintf(w, "Model:       %s (%s)\n", q.GenerationMetadata.Model, q.GenerationMetadata.Provider)
	fmt.Fprintf(w, "Est. time:   %d min\n", q.Statistics.EstimatedMinutes)
	if q.Description != "" {
		fmt.Fprintf(w, "\n%s\n", q.Description)
	}
	fmt.Fprintln(w, sep)

	for i, question := range q.Questions {
		fmt.Fprintf(w, "\n%d. [%s] %s\n", i, question.Type, question.Text)
		switch question.Type {
		case quiz.TypeMultipleChoice:
			for j, opt := range question.Options {
				mark := " "
				if question.CorrectAnswerIndex != nil && *question.CorrectAnswerIndex == j {
					mark = "*"
				}
				fmt.Fprintf(w, "   %s %c) %s\n", mark, 'A'+j, opt)
			}
		case quiz.TypeTrueFalse:
			if question.CorrectAnswer != nil {
				fmt.Fprintf(w, "   Answer: %v\n", *question.CorrectAnswer)
			}
		case quiz.TypeShortAnswer:
			fmt.Fprintf(w, "   Accepted: %s\n", strings.Join(question.CorrectAnswers, " | "))
		case quiz.TypeEssay:
			if question.SampleAnswer != "" {
				fmt.Fprintf(w, "   Sample: %s\n", question.SampleAnswer)
			}
		}
		if question.Explanation != "" {
			fmt.Fprintf(w, "   Why: %s\n", question.Explanation)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
