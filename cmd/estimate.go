package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/generation"
	"github.com/abhisek/quizgen/internal/prompt"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate [text...]",
	Short: "Estimate the time, tokens, and cost of a generation",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := requestFromFlags(cmd, args)
		if err != nil {
			return err
		}

		svc, _, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		e := svc.EstimateGeneration(cmd.Context(), prompt.ParamsFromRequest(req))
		printEstimate(cmd, e)
		return nil
	},
}

func printEstimate(cmd *cobra.Command, e generation.Estimate) {
	w := cmd.OutOrStdout()
	cost := "?"
	if e.CostKnown {
		cost = formatCost(e.EstimatedCost)
	}
	fmt.Fprintf(w, "Model:       %s\n", e.Model)
	fmt.Fprintf(w, "Time:        ~%s\n", e.EstimatedTime.Round(100*time.Millisecond))
	fmt.Fprintf(w, "Tokens:      %d (%d in / %d out)\n", e.EstimatedTokens, e.InputTokens, e.OutputTokens)
	fmt.Fprintf(w, "Cost:        %s\n", cost)
	fmt.Fprintf(w, "Complexity:  %s\n", e.Complexity)
	for _, r := range e.Recommendations {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}

func init() {
	addContentFlags(estimateCmd)
}
