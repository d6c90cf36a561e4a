package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/rafaelqm/concilia/internal/cli"
	"github.com/rafaelqm/concilia/internal/engine"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show reconciliation statistics for a user",
		RunE:  runStats,
	}

	cmd.Flags().StringP("user", "u", "", "user id (required)")
	cmd.Flags().Int("days", 30, "lookback window in days")
	cmd.Flags().Bool("json", false, "print statistics as JSON")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	days, _ := cmd.Flags().GetInt("days")
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := initStorage(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	eng, err := engine.New(store, store, store)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	stats, err := eng.Statistics(cmd.Context(), userID, time.Duration(days)*24*time.Hour)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(stats)
	}

	fmt.Fprintln(out, cli.TitleStyle.Render(fmt.Sprintf("Statistics for %s (%s)", userID, stats.Period)))
	fmt.Fprintf(out, "  %s %d transactions\n", cli.InfoStyle.Render("Total:"), stats.Total)
	fmt.Fprintf(out, "  %s %s income, %s expense, net R$ %.2f\n",
		cli.InfoStyle.Render("Totals:"),
		cli.FormatAmount(stats.Financial.TotalIncome, true),
		cli.FormatAmount(stats.Financial.TotalExpense, false),
		stats.Financial.NetAmount)

	if len(stats.ByStatus) > 0 {
		fmt.Fprintln(out, cli.SubtitleStyle.Render("  By status:"))
		for _, key := range sortedKeys(stats.ByStatus) {
			fmt.Fprintf(out, "    %-24s %d\n", key, stats.ByStatus[key])
		}
	}

	if len(stats.ByCategory) > 0 {
		fmt.Fprintln(out, cli.SubtitleStyle.Render("  By category:"))
		for _, key := range sortedKeys(stats.ByCategory) {
			fmt.Fprintf(out, "    %-28s %d\n", key, stats.ByCategory[key])
		}
	}

	fmt.Fprintf(out, "  %s avg confidence %.2f, %d high quality\n",
		cli.InfoStyle.Render("Quality:"),
		stats.Quality.AverageConfidence, stats.Quality.HighQualityCount)

	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
