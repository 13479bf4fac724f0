package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var quotaCmd = &cobra.Command{
	Use:   "quota <user-id>",
	Short: "Show a user's daily generation quota",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		st, err := svc.QuotaStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "User:       %s (%s)\n", st.UserID, st.Role)
		fmt.Fprintf(w, "Used:       %d / %d\n", st.Used, st.Limit)
		fmt.Fprintf(w, "Remaining:  %d\n", st.Remaining)
		fmt.Fprintf(w, "Saved:      %d quizzes today\n", st.Saved)
		fmt.Fprintf(w, "Resets at:  %s\n", st.ResetsAt.Format("2006-01-02 15:04 MST"))
		return nil
	},
}
