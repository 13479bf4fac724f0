package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/generation"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the configured AI provider answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		h := svc.CheckAIServiceHealth(cmd.Context())
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Status:    %s\n", h.Status)
		fmt.Fprintf(w, "Provider:  %s\n", h.Provider)
		fmt.Fprintf(w, "Model:     %s\n", h.Model)
		fmt.Fprintf(w, "Latency:   %dms\n", h.ResponseTime.Milliseconds())
		if h.Error != "" {
			fmt.Fprintf(w, "Error:     %s\n", h.Error)
		}
		if h.Status != generation.HealthHealthy {
			return fmt.Errorf("AI service is %s", h.Status)
		}
		return nil
	},
}
