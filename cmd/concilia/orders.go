package main

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rafaelqm/concilia/internal/cli"
	"github.com/rafaelqm/concilia/internal/model"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage pending e-commerce orders used for reconciliation",
	}

	cmd.AddCommand(ordersAddCmd())
	cmd.AddCommand(ordersListCmd())

	return cmd
}

func ordersAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a pending order awaiting payment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetString("user")
			customer, _ := cmd.Flags().GetString("customer")
			amount, _ := cmd.Flags().GetFloat64("amount")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			order := model.PendingOrder{
				ID:           uuid.NewString(),
				UserID:       userID,
				CustomerName: customer,
				TotalAmount:  amount,
				Status:       model.OrderPending,
				CreatedAt:    time.Now(),
			}
			if err := store.SaveOrder(cmd.Context(), &order); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(),
				cli.SuccessStyle.Render(fmt.Sprintf("Order %s registered for %s (R$ %.2f)", order.ID, customer, amount)))
			return nil
		},
	}

	cmd.Flags().StringP("user", "u", "", "user id owning the order (required)")
	cmd.Flags().String("customer", "", "customer name (required)")
	cmd.Flags().Float64("amount", 0, "order total (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func ordersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, _ := cmd.Flags().GetString("user")

			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			orders, err := store.FindPending(cmd.Context(), userID, 0, math.MaxFloat64)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(orders) == 0 {
				fmt.Fprintln(out, cli.SubtleStyle.Render("No pending orders."))
				return nil
			}

			fmt.Fprintln(out, cli.TitleStyle.Render("Pending orders"))
			for _, order := range orders {
				fmt.Fprintf(out, "  %s  %-30s R$ %10.2f  %s\n",
					order.ID[:8], order.CustomerName, order.TotalAmount,
					cli.SubtleStyle.Render(order.CreatedAt.Format("2006-01-02")))
			}
			return nil
		},
	}

	cmd.Flags().StringP("user", "u", "", "user id (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
