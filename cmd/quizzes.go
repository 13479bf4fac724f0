package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/store"
)

var quizzesCmd = &cobra.Command{
	Use:   "quizzes",
	Short: "Browse and share saved quizzes",
}

var quizzesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved quizzes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		return withStore(cmd, func(s *store.Store) error {
			quizzes, err := s.ListQuizzes(cmd.Context(), user, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(quizzes) == 0 {
				fmt.Fprintln(w, "No quizzes found.")
				return nil
			}

			const row = "%-36s  %-30s  %-12s  %4v  %3v  %s\n"
			fmt.Fprintf(w, row, "ID", "Title", "Owner", "Qs", "Ver", "Updated")
			rule(w, 110)
			for _, q := range quizzes {
				fmt.Fprintf(w, row, q.ID, truncate(q.Title, 30), truncate(q.UserID, 12),
					len(q.Questions), q.Version, q.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		})
	},
}

var quizzesShowCmd = &cobra.Command{
	Use:   "show <quiz-id>",
	Short: "Show a saved quiz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		return withStore(cmd, func(s *store.Store) error {
			q, err := s.FindQuiz(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), q)
			}
			printQuiz(cmd.OutOrStdout(), q)
			return nil
		})
	},
}

var quizzesShareCmd = &cobra.Command{
	Use:   "share <quiz-id> <user-id>",
	Short: "Let another user regenerate questions of a quiz",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quizID, userID := args[0], args[1]

		return withStore(cmd, func(s *store.Store) error {
			ctx := cmd.Context()
			if _, err := s.FindQuiz(ctx, quizID); err != nil {
				return err
			}
			if _, err := s.FindUser(ctx, userID); err != nil {
				return err
			}
			if err := s.AddCollaborator(ctx, quizID, userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s can now edit %s\n", userID, quizID)
			return nil
		})
	},
}

func init() {
	quizzesListCmd.Flags().StringP("user", "u", "", "Only quizzes owned by this user")
	quizzesListCmd.Flags().IntP("limit", "n", 20, "Number of quizzes to show")
	quizzesShowCmd.Flags().Bool("json", false, "Print the quiz as JSON")

	quizzesCmd.AddCommand(quizzesListCmd)
	quizzesCmd.AddCommand(quizzesShowCmd)
	quizzesCmd.AddCommand(quizzesShareCmd)
}
