package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rafaelqm/concilia/internal/cli"
	"github.com/rafaelqm/concilia/internal/engine"
	"github.com/rafaelqm/concilia/internal/model"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <file>...",
		Short: "Extract, categorize and reconcile transactions from documents",
		Long: `Process one or more financial documents (PDF, JPG/PNG, CSV, XLSX, OFX).
Each document is extracted, enriched, reconciled against existing transactions
and pending orders, and persisted unless --dry-run is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProcess,
	}

	cmd.Flags().StringP("user", "u", "", "user id owning the transactions (required)")
	cmd.Flags().StringP("context", "c", "personal", "document context (business, personal, ecommerce)")
	cmd.Flags().Bool("dry-run", false, "classify without persisting anything")
	cmd.Flags().Bool("json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	contextName, _ := cmd.Flags().GetString("context")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	asJSON, _ := cmd.Flags().GetBool("json")

	docCtx, err := parseContext(contextName)
	if err != nil {
		return err
	}

	store, err := initStorage(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	cfg := engine.DefaultConfig()
	cfg.DryRun = dryRun
	eng, err := engine.NewWithConfig(store, store, store, cfg)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("processing documents"),
	)

	var failures []string
	for _, path := range args {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", path, readErr)
		}

		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		result, procErr := eng.Process(cmd.Context(), data, ext, docCtx, userID)
		_ = bar.Add(1)

		if procErr != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, procErr))
			continue
		}

		fmt.Fprintln(cmd.OutOrStdout())
		if asJSON {
			if err := printJSON(cmd, result); err != nil {
				return err
			}
		} else {
			printResult(cmd, path, result, dryRun)
		}
	}

	if len(failures) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), cli.ErrorStyle.Render("Failures:"))
		for _, f := range failures {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", cli.ErrorStyle.Render(f))
		}
		return fmt.Errorf("%d of %d documents failed", len(failures), len(args))
	}

	return nil
}

func parseContext(name string) (model.Context, error) {
	switch strings.ToLower(name) {
	case "business":
		return model.ContextBusiness, nil
	case "personal":
		return model.ContextPersonal, nil
	case "ecommerce":
		return model.ContextEcommerce, nil
	default:
		return "", fmt.Errorf("unknown context %q (want business, personal or ecommerce)", name)
	}
}

func printJSON(cmd *cobra.Command, result *engine.Result) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func printResult(cmd *cobra.Command, path string, result *engine.Result, dryRun bool) {
	out := cmd.OutOrStdout()
	s := result.Summary

	title := fmt.Sprintf("%s (%s)", filepath.Base(path), result.DocumentType)
	if dryRun {
		title += " [dry run]"
	}
	fmt.Fprintln(out, cli.TitleStyle.Render(title))

	fmt.Fprintf(out, "  %s %d new, %d duplicates ignored, %d reconciled, %d flagged, %d lines skipped\n",
		cli.InfoStyle.Render("Outcome:"),
		s.Stats.NewTransactions, s.Stats.IgnoredDuplicates,
		s.Stats.ReconciledOrders, s.Stats.PotentialMatches, s.SkippedLines)

	fmt.Fprintf(out, "  %s %s income, %s expense, net R$ %.2f\n",
		cli.InfoStyle.Render("Totals:"),
		cli.FormatAmount(s.Financial.TotalIncome, true),
		cli.FormatAmount(s.Financial.TotalExpense, false),
		s.Financial.NetAmount)

	if len(s.Categories) > 0 {
		fmt.Fprintln(out, cli.SubtitleStyle.Render("  Categories:"))
		for _, c := range s.Categories {
			fmt.Fprintf(out, "    %-28s %3d  R$ %10.2f  (avg R$ %.2f)\n",
				c.Category, c.Count, c.Total, c.Average)
		}
	}

	fmt.Fprintf(out, "  %s avg confidence %.2f, %d high quality, %d low quality\n",
		cli.InfoStyle.Render("Quality:"),
		s.Quality.AverageConfidence, s.Quality.HighQualityCount, s.Quality.LowQualityCount)

	if len(s.Degradations) > 0 {
		fmt.Fprintf(out, "  %s %d lookup(s) degraded during reconciliation\n",
			cli.WarningStyle.Render("Warning:"), len(s.Degradations))
	}

	if len(result.Recommendations) > 0 {
		fmt.Fprintln(out, cli.SubtitleStyle.Render("  Recommendations:"))
		var recs []string
		for _, r := range result.Recommendations {
			recs = append(recs, fmt.Sprintf("    [%s] %s", r.Priority, r.Message))
		}
		sort.Strings(recs)
		for _, r := range recs {
			fmt.Fprintln(out, cli.SubtleStyle.Render(r))
		}
	}
}
