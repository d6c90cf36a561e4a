package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rafaelqm/concilia/internal/common"
	"github.com/rafaelqm/concilia/internal/model"
)

// SaveOrder inserts or replaces a pending order. Used by order intake and by
// test fixtures.
func (s *SQLiteStorage) SaveOrder(ctx context.Context, order *model.PendingOrder) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOrder(order); err != nil {
		return err
	}

	status := order.Status
	if status == "" {
		status = model.OrderPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO orders (
			id, user_id, customer_name, status, payment_method,
			total_amount, created_at, payment_confirmed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, order.ID, order.UserID, order.CustomerName, string(status),
		order.PaymentMethod, order.TotalAmount, orderCreatedAt(order), order.PaymentConfirmedAt)
	if err != nil {
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	return nil
}

func orderCreatedAt(order *model.PendingOrder) time.Time {
	if order.CreatedAt.IsZero() {
		return time.Now()
	}
	return order.CreatedAt
}

// FindPending returns a user's pending orders whose total falls inside the
// amount band.
func (s *SQLiteStorage) FindPending(ctx context.Context, userID string, amountMin, amountMax float64) ([]model.PendingOrder, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, customer_name, status, payment_method,
		       total_amount, created_at, payment_confirmed_at
		FROM orders
		WHERE user_id = ? AND status = ? AND total_amount >= ? AND total_amount <= ?
		ORDER BY created_at ASC
	`, userID, string(model.OrderPending), amountMin, amountMax)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orders []model.PendingOrder
	for rows.Next() {
		var order model.PendingOrder
		var paymentMethod sql.NullString
		var confirmedAt sql.NullTime

		if err := rows.Scan(&order.ID, &order.UserID, &order.CustomerName,
			&order.Status, &paymentMethod, &order.TotalAmount,
			&order.CreatedAt, &confirmedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		order.PaymentMethod = paymentMethod.String
		if confirmedAt.Valid {
			t := confirmedAt.Time
			order.PaymentConfirmedAt = &t
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// ConfirmOrder transitions a pending order to confirmed. Confirming an order
// that is not pending is an error; the reconciler must never flip an already
// confirmed or canceled order.
func (s *SQLiteStorage) ConfirmOrder(ctx context.Context, orderID, paymentMethod string, confirmedAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(orderID, "orderID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, payment_method = ?, payment_confirmed_at = ?
		WHERE id = ? AND status = ?
	`, string(model.OrderConfirmed), paymentMethod, confirmedAt,
		orderID, string(model.OrderPending))
	if err != nil {
		return fmt.Errorf("failed to confirm order %s: %w", orderID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check confirmation result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %s is not pending: %w", orderID, common.ErrNotFound)
	}
	return nil
}

// GetOrder fetches one order by ID.
func (s *SQLiteStorage) GetOrder(ctx context.Context, orderID string) (*model.PendingOrder, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(orderID, "orderID"); err != nil {
		return nil, err
	}

	var order model.PendingOrder
	var paymentMethod sql.NullString
	var confirmedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, customer_name, status, payment_method,
		       total_amount, created_at, payment_confirmed_at
		FROM orders WHERE id = ?
	`, orderID).Scan(&order.ID, &order.UserID, &order.CustomerName,
		&order.Status, &paymentMethod, &order.TotalAmount,
		&order.CreatedAt, &confirmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", orderID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}

	order.PaymentMethod = paymentMethod.String
	if confirmedAt.Valid {
		t := confirmedAt.Time
		order.PaymentConfirmedAt = &t
	}
	return &order, nil
}
