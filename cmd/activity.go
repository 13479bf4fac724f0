package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/store"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "List recent generation activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		task, _ := cmd.Flags().GetString("task")
		limit, _ := cmd.Flags().GetInt("limit")

		return withStore(cmd, func(s *store.Store) error {
			events, err := s.EventRepo().QueryActivity(cmd.Context(), store.QueryOpts{
				Limit:  limit,
				UserID: user,
				TaskID: task,
			})
			if err != nil {
				return fmt.Errorf("query activity: %w", err)
			}

			w := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(w, "No activity recorded yet.")
				return nil
			}

			const row = "%-5v  %-19s  %-28s  %-12s  %-8s  %7v  %s\n"
			fmt.Fprintf(w, row, "ID", "Timestamp", "Action", "User", "Quiz", "Ms", "OK")
			rule(w, 100)
			for _, e := range events {
				fmt.Fprintf(w, row,
					e.ID,
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.Action,
					truncate(e.UserID, 12),
					truncate(e.QuizID, 8),
					e.DurationMs,
					okMark(e.Success),
				)
				if !e.Success && e.Details != "" {
					fmt.Fprintf(w, "       %s\n", e.Details)
				}
			}
			return nil
		})
	},
}

func init() {
	activityCmd.Flags().StringP("user", "u", "", "Only activity for this user")
	activityCmd.Flags().String("task", "", "Only activity for this task")
	activityCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
}
