package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rafaelqm/concilia/internal/categorize"
	"github.com/rafaelqm/concilia/internal/cli"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transaction categories",
	}

	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesRulesCmd())

	return cmd
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persisted categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("No categories yet. They are created on first use."))
				return nil
			}

			fmt.Fprintln(out, cli.TitleStyle.Render("Categories"))
			for _, cat := range categories {
				fmt.Fprintf(out, "  %s %-30s %s\n", cat.Emoji, cat.Name, cli.SubtleStyle.Render(string(cat.Context)))
			}
			return nil
		},
	}
}

func categoriesRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show the built-in categorization rule table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := categorize.LoadDefaultTable()
			if err != nil {
				return fmt.Errorf("failed to load rule table: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.TitleStyle.Render(fmt.Sprintf("Rule table v%s", table.Version)))
			for _, rule := range table.Rules {
				fmt.Fprintf(out, "  %s %-30s %s\n",
					rule.Emoji, rule.Name,
					cli.SubtleStyle.Render(fmt.Sprintf("%d keywords, %d patterns", len(rule.Keywords), len(rule.Patterns))))
			}
			return nil
		},
	}
}
