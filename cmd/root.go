package cmd

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/logging"
	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "quizgen",
	Short: "Generate quizzes from text with an AI model",
	Long: "quizgen turns study material into structured quizzes using a configurable AI provider,\n" +
		"and lets owners regenerate individual questions.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		log, err := logging.New(level, format)
		if err != nil {
			return err
		}
		cmd.SetContext(logging.NewContext(cmd.Context(), log))
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	var (
		ve *quiz.ValidationError
		ae *quiz.AuthorizationError
		nf *quiz.NotFoundError
		ai *quiz.AIServiceError
		ce *quiz.CancelledError
	)
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ve):
		return 2
	case errors.As(err, &ae):
		return 3
	case errors.As(err, &nf):
		return 4
	case errors.As(err, &ai):
		return 5
	case errors.As(err, &ce):
		return 130
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZGEN_DB env var)")
	rootCmd.PersistentFlags().String("log-level", logrus.WarnLevel.String(), "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text or json)")
	rootCmd.PersistentFlags().String("provider", "", "AI provider (gemini, anthropic, openai, openrouter, mock); overrides QUIZGEN_LLM_PROVIDER")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(quotaCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(quizzesCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then QUIZGEN_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
