package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/logging"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/tasks"
)

var generateCmd = &cobra.Command{
	Use:   "generate [text...]",
	Short: "Generate a quiz from text",
	Long: "Generate a quiz from the given text. Content is read from --file, then from the\n" +
		"arguments, then from stdin. Press Ctrl-C to cancel an in-flight generation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := requestFromFlags(cmd, args)
		if err != nil {
			return err
		}
		timeout, _ := cmd.Flags().GetDuration("timeout")
		asJSON, _ := cmd.Flags().GetBool("json")

		log := logging.FromContext(cmd.Context())
		var taskID atomic.Value
		observer := func(s tasks.Snapshot) {
			taskID.CompareAndSwap(nil, s.ID)
			log.WithField("task_id", s.ID).WithField("status", s.Status).Info(s.Details)
		}

		svc, _, closeFn, err := openService(cmd, tasks.WithObserver(observer))
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cmd.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		defer signal.Stop(interrupt)
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-interrupt:
				id, ok := taskID.Load().(string)
				if !ok {
					return
				}
				if _, err := svc.CancelGeneration(context.Background(), id, req.UserID); err != nil {
					log.WithError(err).Warn("cancel generation")
				}
			case <-done:
			}
		}()

		q, err := svc.GenerateFromText(ctx, req)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), q)
		}
		printQuiz(cmd.OutOrStdout(), q)
		return nil
	},
}

// requestFromFlags assembles a generation request from the shared content
// flags used by generate and estimate.
func requestFromFlags(cmd *cobra.Command, args []string) (quiz.GenerationRequest, error) {
	user, _ := cmd.Flags().GetString("user")
	typ, _ := cmd.Flags().GetString("type")
	count, _ := cmd.Flags().GetInt("count")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	language, _ := cmd.Flags().GetString("language")
	title, _ := cmd.Flags().GetString("title")
	topic, _ := cmd.Flags().GetString("topic")
	file, _ := cmd.Flags().GetString("file")

	req := quiz.GenerationRequest{
		QuestionType:      quiz.QuestionType(typ),
		NumberOfQuestions: count,
		Difficulty:        quiz.Difficulty(difficulty),
		Language:          language,
		UserID:            user,
		Source:            quiz.SourceText,
		Title:             title,
		Topic:             topic,
	}

	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return req, fmt.Errorf("read content file: %w", err)
		}
		req.Content = string(data)
		req.Source = quiz.SourceFile
		req.FileName = filepath.Base(file)
	case len(args) > 0:
		req.Content = strings.Join(args, " ")
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return req, fmt.Errorf("read stdin: %w", err)
		}
		req.Content = string(data)
	}
	return req, nil
}

func addContentFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("user", "u", "", "User the quiz is generated for")
	cmd.Flags().StringP("type", "t", string(quiz.TypeMultipleChoice), "Question type (multiple_choice, true_false, short_answer, essay)")
	cmd.Flags().IntP("count", "n", 5, "Number of questions (1-50)")
	cmd.Flags().StringP("difficulty", "d", string(quiz.DifficultyMedium), "Difficulty (easy, medium, hard)")
	cmd.Flags().StringP("language", "l", quiz.DefaultLanguage, "Language code for the questions")
	cmd.Flags().String("title", "", "Quiz title (defaults to the title proposed by the model)")
	cmd.Flags().String("topic", "", "Short topic label added to the prompt")
	cmd.Flags().StringP("file", "f", "", "Read content from a file")
}

func init() {
	addContentFlags(generateCmd)
	generateCmd.Flags().Duration("timeout", 0, "Give up on the whole generation after this long (default: no limit)")
	generateCmd.Flags().Bool("json", false, "Print the quiz as JSON")
	generateCmd.MarkFlagRequired("user")
}
