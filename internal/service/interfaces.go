// Package service defines the interfaces for the engine's external
// collaborators. The engine only ever talks to persistence through these
// contracts; implementations live in internal/storage.
package service

import (
	"context"
	"time"

	"github.com/rafaelqm/concilia/internal/model"
)

// SimilarQuery describes a duplicate/similarity lookup: transactions for a
// user within an amount band and a date window, optionally restricted to one
// direction.
type SimilarQuery struct {
	DateFrom  time.Time
	DateTo    time.Time
	UserID    string
	Type      model.TransactionType
	AmountMin float64
	AmountMax float64
}

// TransactionStore is the persisted-transaction collaborator queried for
// duplicate and similarity checks.
type TransactionStore interface {
	// FindByContentHash returns transactions with the exact content hash.
	FindByContentHash(ctx context.Context, userID, contentHash string) ([]model.Transaction, error)
	// FindSimilar returns transactions matching the query windows.
	FindSimilar(ctx context.Context, q SimilarQuery) ([]model.Transaction, error)
	// SaveTransactions persists classified transactions.
	SaveTransactions(ctx context.Context, userID string, txns []model.Transaction) error
	// GetSince returns a user's transactions on or after the given time,
	// used for reconciliation statistics.
	GetSince(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error)
}

// OrderStore is the e-commerce order collaborator used during
// reconciliation.
type OrderStore interface {
	// FindPending returns pending orders whose total falls inside the
	// amount band.
	FindPending(ctx context.Context, userID string, amountMin, amountMax float64) ([]model.PendingOrder, error)
	// ConfirmOrder transitions an order to confirmed, recording the payment
	// method and confirmation time.
	ConfirmOrder(ctx context.Context, orderID, paymentMethod string, confirmedAt time.Time) error
}

// CategoryStore manages persisted category definitions. Categories are
// created on demand the first time a new name is used.
type CategoryStore interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
	FindOrCreateCategory(ctx context.Context, name string, docCtx model.Context) (*model.Category, error)
}
