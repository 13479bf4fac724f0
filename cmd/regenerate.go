package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/generation"
	"github.com/abhisek/quizgen/internal/quiz"
)

var regenerateCmd = &cobra.Command{
	Use:   "regenerate <quiz-id>",
	Short: "Regenerate selected questions of a quiz",
	Long:  "Replace the questions at the given zero-based indices, keeping every other question unchanged.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		rawIndices, _ := cmd.Flags().GetString("indices")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		sourceFile, _ := cmd.Flags().GetString("source-file")
		asJSON, _ := cmd.Flags().GetBool("json")

		indices, err := parseIndices(rawIndices)
		if err != nil {
			return &quiz.ValidationError{Field: "indices", Reason: err.Error()}
		}

		params := generation.RegenerateParams{
			UserID:     user,
			Difficulty: quiz.Difficulty(difficulty),
		}
		if sourceFile != "" {
			data, err := os.ReadFile(sourceFile)
			if err != nil {
				return fmt.Errorf("read source file: %w", err)
			}
			params.SourceContent = string(data)
		}

		svc, _, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		q, err := svc.RegenerateQuestions(cmd.Context(), args[0], indices, params)
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

func init() {
	regenerateCmd.Flags().StringP("user", "u", "", "User requesting the change (owner or collaborator)")
	regenerateCmd.Flags().StringP("indices", "i", "", "Comma-separated question indices, e.g. 1,3")
	regenerateCmd.Flags().StringP("difficulty", "d", "", "Difficulty for the new questions (defaults to the quiz difficulty)")
	regenerateCmd.Flags().String("source-file", "", "Original source material to ground the new questions")
	regenerateCmd.Flags().Bool("json", false, "Print the quiz as JSON")
	regenerateCmd.MarkFlagRequired("user")
	regenerateCmd.MarkFlagRequired("indices")
}
