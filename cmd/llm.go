package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairexam/fairexam/internal/llm"
	"github.com/fairexam/fairexam/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect and test the external classifier",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent classifier calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		analysisID, _ := cmd.Flags().GetString("analysis")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{
			Limit:      limit,
			Purpose:    purpose,
			AnalysisID: analysisID,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No classifier calls recorded.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-8s  %-23s  %-24s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Analysis", "Purpose", "Model", "In", "Out", "Ms", "Result")
		fmt.Fprintln(out, strings.Repeat("─", 120))

		for _, e := range events {
			result := "✓"
			if !e.Success {
				result = "✗ " + e.ErrorKind
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-8s  %-23s  %-24s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.AnalysisID, 8),
				truncate(e.Purpose, 23),
				truncate(e.Model, 24),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				result,
			)
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated classifier token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		stats, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(out, "No classifier usage recorded yet.")
			return nil
		}

		// Usage by purpose.
		fmt.Fprintln(out, "Usage by Purpose")
		fmt.Fprintln(out, strings.Repeat("─", 84))
		fmt.Fprintf(out, "%-24s  %6s  %6s  %10s  %10s  %10s  %8s\n",
			"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms")
		fmt.Fprintln(out, strings.Repeat("─", 84))

		var totalCalls, totalFailed, totalIn, totalOut int
		for _, st := range stats {
			total := st.InputTokens + st.OutputTokens
			fmt.Fprintf(out, "%-24s  %6d  %6d  %10d  %10d  %10d  %8d\n",
				st.Purpose, st.Calls, st.Failures, st.InputTokens, st.OutputTokens, total, st.AvgLatencyMs)
			totalCalls += st.Calls
			totalFailed += st.Failures
			totalIn += st.InputTokens
			totalOut += st.OutputTokens
		}

		fmt.Fprintln(out, strings.Repeat("─", 84))
		fmt.Fprintf(out, "%-24s  %6d  %6d  %10d  %10d  %10d\n",
			"TOTAL", totalCalls, totalFailed, totalIn, totalOut, totalIn+totalOut)

		// Cost by model.
		modelUsage, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		if len(modelUsage) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Estimated Cost (USD)")
			fmt.Fprintln(out, strings.Repeat("─", 76))
			fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n",
				"Model", "Calls", "Input", "Output", "Cost")
			fmt.Fprintln(out, strings.Repeat("─", 76))

			var totalCost float64
			var unknownModels []string
			for _, mu := range modelUsage {
				cost := llm.LookupCost(mu.Model)
				if cost == nil {
					unknownModels = append(unknownModels, mu.Model)
					fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n",
						truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, "?")
					continue
				}
				c := cost.Cost(mu.InputTokens, mu.OutputTokens)
				totalCost += c
				fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n",
					truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, formatCost(c))
			}

			fmt.Fprintln(out, strings.Repeat("─", 76))
			label := "TOTAL"
			if len(unknownModels) > 0 {
				label = "TOTAL (partial)"
			}
			fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n",
				label, "", "", "", formatCost(totalCost))

			if len(unknownModels) > 0 {
				fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
			}
		}

		return nil
	},
}

var llmPingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send a tiny request to check the configured classifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		repo, closeStore := openEventRepo(cmd)
		defer closeStore()

		provider, cfg, err := llm.NewProviderFromEnv(cmd.Context(), repo)
		if errors.Is(err, llm.ErrNotConfigured) {
			return fmt.Errorf("%w: set FAIREXAM_LLM_PROVIDER or a vendor API key (OPENAI_API_KEY, ANTHROPIC_API_KEY, ...)", err)
		}
		if err != nil {
			return fmt.Errorf("configure classifier: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		res, err := llm.Ping(ctx, provider)
		if err != nil {
			return fmt.Errorf("%s (%s): %s: %w", cfg.Provider, provider.ModelID(), llm.FailureKind(err), err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%s) answered in %s, %d tokens\n",
			cfg.Provider, res.Model, res.Latency.Round(time.Millisecond), res.Usage.InputTokens+res.Usage.OutputTokens)
		return nil
	},
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (topic-extraction, question-classification, topic-matching, ping)")
	llmListCmd.Flags().String("analysis", "", "Filter by analysis ID")
	llmPingCmd.Flags().Duration("timeout", 30*time.Second, "How long to wait for the reply")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmStatsCmd)
	llmCmd.AddCommand(llmPingCmd)
}
