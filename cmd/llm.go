package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/llm"
	"github.com/abhisek/quizgen/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect model calls, usage, and cost",
}

// withStore opens the database for the duration of fn.
func withStore(cmd *cobra.Command, fn func(*store.Store) error) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func rule(w io.Writer, n int) {
	fmt.Fprintln(w, strings.Repeat("─", n))
}

func okMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		task, _ := cmd.Flags().GetString("task")
		asJSON, _ := cmd.Flags().GetBool("json")

		return withStore(cmd, func(s *store.Store) error {
			events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{
				Limit:   limit,
				Purpose: purpose,
				TaskID:  task,
			})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return printJSON(w, events)
			}
			if len(events) == 0 {
				fmt.Fprintln(w, "No model calls found.")
				return nil
			}

			const row = "%-5v  %-19s  %-16s  %-8s  %-28s  %6v  %6v  %7v  %s\n"
			fmt.Fprintf(w, row, "ID", "Timestamp", "Purpose", "Task", "Model", "In", "Out", "Ms", "OK")
			rule(w, 112)
			for _, e := range events {
				fmt.Fprintf(w, row,
					e.ID,
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					truncate(e.Purpose, 16),
					truncate(e.TaskID, 8),
					truncate(e.Model, 28),
					e.InputTokens,
					e.OutputTokens,
					e.LatencyMs,
					okMark(e.Success),
				)
			}
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the captured request and response of one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		return withStore(cmd, func(s *store.Store) error {
			e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}

			w := cmd.OutOrStdout()
			fields := [][2]string{
				{"ID", strconv.Itoa(e.ID)},
				{"Time", e.Timestamp.Local().Format("2006-01-02 15:04:05")},
				{"Provider", e.Provider},
				{"Model", e.Model},
				{"Purpose", e.Purpose},
				{"Task", e.TaskID},
				{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
				{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
				{"Success", strconv.FormatBool(e.Success)},
				{"Error", e.ErrorMessage},
			}
			if c := llm.LookupCost(e.Model); c != nil {
				fields = append(fields, [2]string{"Cost", formatCost(c.Cost(e.InputTokens, e.OutputTokens))})
			}
			for _, f := range fields {
				if f[1] != "" {
					fmt.Fprintf(w, "%-10s %s\n", f[0]+":", f[1])
				}
			}

			for _, section := range []struct{ name, body string }{
				{"REQUEST", e.RequestBody},
				{"RESPONSE", e.ResponseBody},
			} {
				body := section.body
				if body == "" {
					body = "(not captured)"
				}
				fmt.Fprintln(w)
				rule(w, 60)
				fmt.Fprintln(w, section.name)
				rule(w, 60)
				fmt.Fprintln(w, body)
			}
			return nil
		})
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage by purpose and estimated cost by model",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(s *store.Store) error {
			ctx := cmd.Context()
			repo := s.EventRepo()
			w := cmd.OutOrStdout()

			byPurpose, err := repo.LLMUsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			if len(byPurpose) == 0 {
				fmt.Fprintln(w, "No model usage recorded yet.")
				return nil
			}
			printPurposeUsage(w, byPurpose)

			byModel, err := repo.LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("query model usage: %w", err)
			}
			if len(byModel) > 0 {
				fmt.Fprintln(w)
				printModelCost(w, byModel)
			}
			return nil
		})
	},
}

func printPurposeUsage(w io.Writer, usage []store.PurposeUsage) {
	const row = "%-16s  %6v  %10v  %10v  %10v  %8v\n"
	fmt.Fprintln(w, "Usage by Purpose")
	rule(w, 72)
	fmt.Fprintf(w, row, "Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
	rule(w, 72)

	var calls, in, out int
	for _, u := range usage {
		fmt.Fprintf(w, row, truncate(u.Purpose, 16), u.Calls, u.InputTokens, u.OutputTokens,
			u.InputTokens+u.OutputTokens, u.AvgLatencyMs)
		calls += u.Calls
		in += u.InputTokens
		out += u.OutputTokens
	}
	rule(w, 72)
	fmt.Fprintf(w, row, "TOTAL", calls, in, out, in+out, "")
}

func printModelCost(w io.Writer, usage []store.ModelUsage) {
	const row = "%-32s  %6v  %10v  %10v  %10s\n"
	fmt.Fprintln(w, "Estimated Cost (USD)")
	rule(w, 72)
	fmt.Fprintf(w, row, "Model", "Calls", "Input", "Output", "Cost")
	rule(w, 72)

	var total float64
	var unpriced []string
	for _, u := range usage {
		cost := "?"
		if c := llm.LookupCost(u.Model); c != nil {
			usd := c.Cost(u.InputTokens, u.OutputTokens)
			total += usd
			cost = formatCost(usd)
		} else {
			unpriced = append(unpriced, u.Model)
		}
		fmt.Fprintf(w, row, truncate(u.Model, 32), u.Calls, u.InputTokens, u.OutputTokens, cost)
	}
	rule(w, 72)

	label := "TOTAL"
	if len(unpriced) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Fprintf(w, row, label, "", "", "", formatCost(total))
	if len(unpriced) > 0 {
		fmt.Fprintf(w, "\nPricing unavailable for: %s\n", strings.Join(unpriced, ", "))
	}
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (quiz.generate, quiz.regenerate, health)")
	llmListCmd.Flags().String("task", "", "Only calls made for this generation task")
	llmListCmd.Flags().Bool("json", false, "Print events as JSON")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
