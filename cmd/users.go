package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/store"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users and their roles",
}

var usersAddCmd = &cobra.Command{
	Use:   "add <user-id>",
	Short: "Create a user or update its role and status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		suspended, _ := cmd.Flags().GetBool("suspended")

		u := &quiz.User{ID: args[0], Role: quiz.Role(role), Status: quiz.UserActive}
		if !u.Role.Valid() {
			return &quiz.ValidationError{Field: "role", Reason: fmt.Sprintf("unsupported role %q", role)}
		}
		if suspended {
			u.Status = quiz.UserSuspended
		}

		return withStore(cmd, func(s *store.Store) error {
			if err := s.SaveUser(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s, %s)\n", u.ID, u.Role, u.Status)
			return nil
		})
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s *store.Store) error {
			users, err := s.ListUsers(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(w, "No users found.")
				return nil
			}

			const row = "%-24s  %-8s  %-10s  %s\n"
			fmt.Fprintf(w, row, "ID", "Role", "Status", "Created")
			rule(w, 64)
			for _, u := range users {
				fmt.Fprintf(w, row, truncate(u.ID, 24), u.Role, u.Status, u.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		})
	},
}

func init() {
	usersAddCmd.Flags().StringP("role", "r", string(quiz.RoleStudent), "Role (admin, teacher, student)")
	usersAddCmd.Flags().Bool("suspended", false, "Mark the user as suspended")

	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersListCmd)
}
