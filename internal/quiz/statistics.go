package quiz

import (
	"math"
	"unicode/utf8"
)

// Statistics summarizes a quiz for display and estimation.
type Statistics struct {
	QuestionTypes    map[QuestionType]int `json:"questionTypes"`
	TotalQuestions   int                  `json:"totalQuestions"`
	EstimatedMinutes int                  `json:"estimatedMinutes"`
	Difficulty       Difficulty           `json:"difficulty"`
}

// minutesPerQuestion is the expected answering time per question type.
var minutesPerQuestion = map[QuestionType]float64{
	TypeMultipleChoice: 1,
	TypeTrueFalse:      0.5,
	TypeShortAnswer:    2,
	TypeEssay:          10,
}

// ComputeStatistics derives the type histogram, estimated completion time,
// and a naive aggregate difficulty from the questions.
func ComputeStatistics(questions []Question) Statistics {
	stats := Statistics{
		QuestionTypes:  make(map[QuestionType]int),
		TotalQuestions: len(questions),
	}

	var minutes float64
	for _, q := range questions {
		stats.QuestionTypes[q.Type]++
		minutes += minutesPerQuestion[q.Type]
	}
	stats.EstimatedMinutes = int(math.Ceil(minutes))
	stats.Difficulty = classifyDifficulty(questions)
	return stats
}

// classifyDifficulty scores each question from its text length and type and
// buckets the average.
func classifyDifficulty(questions []Question) Difficulty {
	if len(questions) == 0 {
		return DifficultyEasy
	}

	var score float64
	for _, q := range questions {
		n := utf8.RuneCountInString(q.Text)
		switch {
		case n > 200:
			score += 2
		case n > 80:
			score += 1
		}
		switch q.Type {
		case TypeEssay:
			score += 2
		case TypeShortAnswer:
			score += 1
		}
	}

	avg := score / float64(len(questions))
	switch {
	case avg >= 2:
		return DifficultyHard
	case avg >= 1:
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}
