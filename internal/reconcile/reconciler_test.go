package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/service"
)

// txStoreMock implements service.TransactionStore with overridable funcs;
// unset funcs behave as an empty store.
type txStoreMock struct {
	findByHash  func(ctx context.Context, userID, hash string) ([]model.Transaction, error)
	findSimilar func(ctx context.Context, q service.SimilarQuery) ([]model.Transaction, error)
}

func (m *txStoreMock) FindByContentHash(ctx context.Context, userID, hash string) ([]model.Transaction, error) {
	if m.findByHash != nil {
		return m.findByHash(ctx, userID, hash)
	}
	return nil, nil
}

func (m *txStoreMock) FindSimilar(ctx context.Context, q service.SimilarQuery) ([]model.Transaction, error) {
	if m.findSimilar != nil {
		return m.findSimilar(ctx, q)
	}
	return nil, nil
}

func (m *txStoreMock) SaveTransactions(ctx context.Context, userID string, txns []model.Transaction) error {
	return nil
}

func (m *txStoreMock) GetSince(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error) {
	return nil, nil
}

// orderStoreMock implements service.OrderStore the same way.
type orderStoreMock struct {
	findPending  func(ctx context.Context, userID string, amountMin, amountMax float64) ([]model.PendingOrder, error)
	confirmOrder func(ctx context.Context, orderID, paymentMethod string, confirmedAt time.Time) error
}

func (m *orderStoreMock) FindPending(ctx context.Context, userID string, amountMin, amountMax float64) ([]model.PendingOrder, error) {
	if m.findPending != nil {
		return m.findPending(ctx, userID, amountMin, amountMax)
	}
	return nil, nil
}

func (m *orderStoreMock) ConfirmOrder(ctx context.Context, orderID, paymentMethod string, confirmedAt time.Time) error {
	if m.confirmOrder != nil {
		return m.confirmOrder(ctx, orderID, paymentMethod, confirmedAt)
	}
	return nil
}

func expenseTxn(amount float64, description string) model.Transaction {
	date := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	return model.Transaction{
		ID:          "txn-1",
		Date:        date,
		Amount:      amount,
		Type:        model.TypeExpense,
		Description: description,
		Category:    "Alimentação e Bebidas",
		Confidence:  0.8,
		ContentHash: model.GenerateContentHash(amount, description, date, model.TypeExpense),
	}
}

func pixIncomeTxn(amount float64, clientName string) model.Transaction {
	date := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	description := "PIX recebido de " + clientName
	return model.Transaction{
		ID:            "txn-2",
		Date:          date,
		Amount:        amount,
		Type:          model.TypeIncome,
		Description:   description,
		Category:      "Vendas E-commerce",
		PIXDirection:  model.PIXReceived,
		PIXClientName: clientName,
		Confidence:    0.9,
		ContentHash:   model.GenerateContentHash(amount, description, date, model.TypeIncome),
	}
}

func TestProcessBatchExactDuplicate(t *testing.T) {
	ctx := context.Background()

	t.Run("hash match", func(t *testing.T) {
		txns := &txStoreMock{
			findByHash: func(ctx context.Context, userID, hash string) ([]model.Transaction, error) {
				return []model.Transaction{{ID: "existing-1"}}, nil
			},
		}
		r := New(txns, &orderStoreMock{})

		processed, stats := r.ProcessBatch(ctx, []model.Transaction{expenseTxn(150, "COMPRA MERCADO EXTRA")}, "user-1")

		require.Len(t, processed, 1)
		outcome := processed[0].Outcome
		require.NotNil(t, outcome)
		assert.Equal(t, model.StatusIgnoredDuplicate, outcome.Status)
		assert.Equal(t, model.ActionIgnored, outcome.Action)
		assert.Equal(t, "existing-1", outcome.DuplicateID)
		assert.Equal(t, 1, stats.IgnoredDuplicates)
		assert.Equal(t, 1, stats.TotalProcessed)
	})

	t.Run("amount date and description match", func(t *testing.T) {
		txns := &txStoreMock{
			findSimilar: func(ctx context.Context, q service.SimilarQuery) ([]model.Transaction, error) {
				return []model.Transaction{{ID: "existing-2", Description: "COMPRA MERCADO EXTRA"}}, nil
			},
		}
		r := New(txns, &orderStoreMock{})

		processed, stats := r.ProcessBatch(ctx, []model.Transaction{expenseTxn(150, "COMPRA MERCADO EXTRA")}, "user-1")

		outcome := processed[0].Outcome
		assert.Equal(t, model.StatusIgnoredDuplicate, outcome.Status)
		assert.Equal(t, "existing-2", outcome.DuplicateID)
		assert.Equal(t, 1, stats.IgnoredDuplicates)
	})

	t.Run("same run twice is idempotent", func(t *testing.T) {
		saved := map[string]model.Transaction{}
		txns := &txStoreMock{
			findByHash: func(ctx context.Context, userID, hash string) ([]model.Transaction, error) {
				if existing, ok := saved[hash]; ok {
					return []model.Transaction{existing}, nil
				}
				return nil, nil
			},
		}
		r := New(txns, &orderStoreMock{})

		first, stats := r.ProcessBatch(ctx, []model.Transaction{expenseTxn(150, "COMPRA MERCADO EXTRA")}, "user-1")
		assert.Equal(t, 1, stats.NewTransactions)
		saved[first[0].ContentHash] = first[0]

		_, stats = r.ProcessBatch(ctx, []model.Transaction{expenseTxn(150, "COMPRA MERCADO EXTRA")}, "user-1")
		assert.Equal(t, 1, stats.IgnoredDuplicates)
		assert.Zero(t, stats.NewTransactions)
	})
}

func TestProcessBatchOrderReconciliation(t *testing.T) {
	ctx := context.Background()

	t.Run("pix income confirms matching order", func(t *testing.T) {
		var gotMin, gotMax float64
		var confirmedID, confirmedMethod string

		orders := &orderStoreMock{
			findPending: func(ctx context.Context, userID string, amountMin, amountMax float64) ([]model.PendingOrder, error) {
				gotMin, gotMax = amountMin, amountMax
				return []model.PendingOrder{{
					ID:           "order-abc123",
					UserID:       userID,
					CustomerName: "Maria Silva Santos",
					TotalAmount:  100.90,
					Status:       model.OrderPending,
				}}, nil
			},
			confirmOrder: func(ctx context.Context, orderID, paymentMethod string, confirmedAt time.Time) error {
				confirmedID, confirmedMethod = orderID, paymentMethod
				return nil
			},
		}
		r := New(&txStoreMock{}, orders)

		processed, stats := r.ProcessBatch(ctx, []model.Transaction{pixIncomeTxn(100.00, "Maria Silva")}, "user-1")

		outcome := processed[0].Outcome
		require.NotNil(t, outcome)
		assert.Equal(t, model.StatusReconciledWithOrder, outcome.Status)
		assert.Equal(t, model.ActionReconciled, outcome.Action)
		assert.True(t, outcome.AutoConfirmed)
		assert.Equal(t, "order-abc123", outcome.MatchedOrderID)
		assert.Equal(t, "Maria Silva Santos", outcome.CustomerName)
		assert.Contains(t, outcome.Reason, "abc123")
		assert.Equal(t, 1, stats.ReconciledOrders)

		// The search band is the 1% amount tolerance.
		assert.InDelta(t, 99.00, gotMin, 0.001)
		assert.InDelta(t, 101.00, gotMax, 0.001)
		assert.Equal(t, "order-abc123", confirmedID)
		assert.Equal(t, "pix", confirmedMethod)
	})

	t.Run("confirmation failure keeps the match", func(t *testing.T) {
		attempts := 0
		orders := &orderStoreMock{
			findPending: func(ctx context.Context, userID string, amountMin, amountMax float64) ([]model.PendingOrder, error) {
				return []model.PendingOrder{{ID: "order-xyz789", CustomerName: "Maria Silva", TotalAmount: 100}}, nil
			},
			confirmOrder: func(ctx context.Context, orderID, paymentMethod string, confirmedAt time.Time) error {
				attempts++
				return errors.New("db locked")
			},
		}
		r := New(&txStoreMock{}, orders)

		processed, stats := r.ProcessBatch(ctx, []model.Transaction{pixIncomeTxn(100.00, "Maria Silva")}, "user-1")

		outcome := processed[0].Outcome
		assert.Equal(t, model.StatusReconciledWithOrder, outcome.Status)
		assert.False(t, outcome.AutoConfirmed)
		assert.Contains(t, outcome.Reason, "erro na confirmação")
		assert.Equal(t, 3, attempts)
		assert.Equal(t, 1, stats.ReconciledOrders)
	})

	t.Run("customer name must share a significant word", func(t *testing.T) {
		orders := &orderStoreMock{
			findPending: func(ctx context.Context, userID string, amountMin, amountMax float64) ([]model.PendingOrder, error) {
				return []model.PendingOrder{{ID: "order-1", CustomerName: "Carlos Eduardo", TotalAmount: 100}}, nil
			},
		}
		r := New(&txStoreMock{}, orders)

		processed, _ := r.ProcessBatch(ctx, []model.Transaction{pixIncomeTxn(100.00, "Maria Silva")}, "user-1")
		assert.Equal(t, model.StatusNewTransaction, processed[0].Outcome.Status)
	})

	t.Run("expense never reaches order matching", func(t *testing.T) {
		called := false
		orders := &orderStoreMock{
			findPending: func(ctx context.Context, userID string, amountMin, amountMax float64) ([]model.PendingOrder, error) {
				called = true
				return nil, nil
			},
		}
		r := New(&txStoreMock{}, orders)

		r.ProcessBatch(ctx, []model.Transaction{expenseTxn(100, "PIX enviado para Loja")}, "user-1")
		assert.False(t, called)
	})
}

func TestProcessBatchPotentialDuplicate(t *testing.T) {
	ctx := context.Background()

	txns := &txStoreMock{
		findSimilar: func(ctx context.Context, q service.SimilarQuery) ([]model.Transaction, error) {
			// Only answer the relaxed search; the strict window carries no
			// direction filter.
			if q.Type == "" {
				return nil, nil
			}
			return []model.Transaction{{ID: "existing-3", Description: "compra mercado central rj"}}, nil
		},
	}
	r := New(txns, &orderStoreMock{})

	processed, stats := r.ProcessBatch(ctx, []model.Transaction{expenseTxn(150, "compra mercado central sp")}, "user-1")

	outcome := processed[0].Outcome
	require.NotNil(t, outcome)
	assert.Equal(t, model.StatusPotentialMatch, outcome.Status)
	assert.Equal(t, model.ActionFlaggedForReview, outcome.Action)
	assert.Equal(t, "existing-3", outcome.SimilarID)
	assert.InDelta(t, 0.6, outcome.SimilarityScore, 0.001)
	assert.Contains(t, outcome.Reason, "60%")
	assert.Equal(t, 1, stats.PotentialMatches)
}

func TestProcessBatchNewTransaction(t *testing.T) {
	ctx := context.Background()
	r := New(&txStoreMock{}, &orderStoreMock{})

	processed, stats := r.ProcessBatch(ctx, []model.Transaction{expenseTxn(150, "COMPRA MERCADO EXTRA")}, "user-1")

	outcome := processed[0].Outcome
	require.NotNil(t, outcome)
	assert.Equal(t, model.StatusNewTransaction, outcome.Status)
	assert.Equal(t, model.ActionReadyToSave, outcome.Action)
	assert.NotEmpty(t, outcome.Reason)
	assert.Equal(t, 1, stats.NewTransactions)

	// The post-processing pass ran.
	assert.Greater(t, processed[0].QualityScore, 0.0)
	assert.Greater(t, processed[0].ImportanceScore, 0.0)
}

func TestProcessBatchDegradesOnLookupFailure(t *testing.T) {
	ctx := context.Background()

	txns := &txStoreMock{
		findByHash: func(ctx context.Context, userID, hash string) ([]model.Transaction, error) {
			return nil, errors.New("connection refused")
		},
		findSimilar: func(ctx context.Context, q service.SimilarQuery) ([]model.Transaction, error) {
			return nil, errors.New("connection refused")
		},
	}
	r := New(txns, &orderStoreMock{})

	processed, stats := r.ProcessBatch(ctx, []model.Transaction{expenseTxn(150, "COMPRA MERCADO EXTRA")}, "user-1")

	// Lookup failures degrade to "no match": the candidate still lands as a
	// new transaction with the failures recorded.
	outcome := processed[0].Outcome
	require.NotNil(t, outcome)
	assert.Equal(t, model.StatusNewTransaction, outcome.Status)
	assert.Len(t, outcome.Degradations, 2)
	assert.Equal(t, 1, stats.NewTransactions)
	assert.Zero(t, stats.Errors)
}

func TestPendingOrdersMemoization(t *testing.T) {
	ctx := context.Background()

	calls := 0
	orders := &orderStoreMock{
		findPending: func(ctx context.Context, userID string, amountMin, amountMax float64) ([]model.PendingOrder, error) {
			calls++
			return nil, nil
		},
	}
	r := New(&txStoreMock{}, orders)

	batch := []model.Transaction{pixIncomeTxn(100.00, "Maria Silva"), pixIncomeTxn(100.00, "Maria Silva")}
	r.ProcessBatch(ctx, batch, "user-1")

	assert.Equal(t, 1, calls)
}
