// Package testutil provides shared helpers for package tests: an in-memory
// migrated database and fixture builders for transactions and orders.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/storage"
)

// TestDB wraps an in-memory migrated SQLite store for one test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database. It runs migrations and
// registers cleanup automatically.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// SeedTransaction persists one transaction built from the essentials; the
// remaining fields get sensible defaults.
func (db *TestDB) SeedTransaction(userID string, amount float64, description string, date time.Time, txType model.TransactionType) model.Transaction {
	db.t.Helper()

	txn := model.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        date,
		Amount:      amount,
		Description: description,
		Type:        txType,
		Category:    model.CategoryOther,
		ContentHash: model.GenerateContentHash(amount, description, date, txType),
		Confidence:  0.8,
		Outcome:     &model.ReconciliationOutcome{Status: model.StatusNewTransaction},
	}

	if err := db.Storage.SaveTransactions(context.Background(), userID, []model.Transaction{txn}); err != nil {
		db.t.Fatalf("failed to seed transaction: %v", err)
	}
	return txn
}

// SeedOrder persists one pending order.
func (db *TestDB) SeedOrder(userID, customerName string, totalAmount float64) model.PendingOrder {
	db.t.Helper()

	order := model.PendingOrder{
		ID:           uuid.NewString(),
		UserID:       userID,
		CustomerName: customerName,
		TotalAmount:  totalAmount,
		Status:       model.OrderPending,
		CreatedAt:    time.Now(),
	}

	if err := db.Storage.SaveOrder(context.Background(), &order); err != nil {
		db.t.Fatalf("failed to seed order: %v", err)
	}
	return order
}
