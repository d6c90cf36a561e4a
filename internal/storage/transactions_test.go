package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/service"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func sampleTransaction(userID string, amount float64, description string, date time.Time, txType model.TransactionType) model.Transaction {
	return model.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        date,
		Amount:      amount,
		Description: description,
		Type:        txType,
		Category:    "Alimentação e Bebidas",
		Context:     model.ContextPersonal,
		Source:      model.SourcePDF,
		ContentHash: model.GenerateContentHash(amount, description, date, txType),
		Confidence:  0.8,
		Tags:        []string{"pix", "alto_valor"},
		Outcome:     &model.ReconciliationOutcome{Status: model.StatusNewTransaction},
	}
}

func TestSaveAndFindByContentHash(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	date := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	txn := sampleTransaction("user-1", 150, "COMPRA MERCADO EXTRA", date, model.TypeExpense)
	txn.PIXDirection = model.PIXReceived
	txn.PIXClientName = "Maria"
	require.NoError(t, store.SaveTransactions(ctx, "user-1", []model.Transaction{txn}))

	t.Run("roundtrip preserves fields", func(t *testing.T) {
		found, err := store.FindByContentHash(ctx, "user-1", txn.ContentHash)
		require.NoError(t, err)
		require.Len(t, found, 1)

		got := found[0]
		assert.Equal(t, txn.ID, got.ID)
		assert.Equal(t, "COMPRA MERCADO EXTRA", got.Description)
		assert.InDelta(t, 150, got.Amount, 0.001)
		assert.Equal(t, model.TypeExpense, got.Type)
		assert.Equal(t, "Alimentação e Bebidas", got.Category)
		assert.Equal(t, model.PIXReceived, got.PIXDirection)
		assert.Equal(t, "Maria", got.PIXClientName)
		assert.Equal(t, []string{"pix", "alto_valor"}, got.Tags)
		require.NotNil(t, got.Outcome)
		assert.Equal(t, model.StatusNewTransaction, got.Outcome.Status)
	})

	t.Run("scoped to the user", func(t *testing.T) {
		found, err := store.FindByContentHash(ctx, "user-2", txn.ContentHash)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("replaying the same id is a no-op", func(t *testing.T) {
		require.NoError(t, store.SaveTransactions(ctx, "user-1", []model.Transaction{txn}))

		found, err := store.FindByContentHash(ctx, "user-1", txn.ContentHash)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})
}

func TestSaveTransactionsValidation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	date := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty batch", func(t *testing.T) {
		err := store.SaveTransactions(ctx, "user-1", []model.Transaction{})
		assert.ErrorIs(t, err, ErrEmptySlice)
	})

	t.Run("missing content hash", func(t *testing.T) {
		txn := sampleTransaction("user-1", 150, "COMPRA", date, model.TypeExpense)
		txn.ContentHash = ""
		err := store.SaveTransactions(ctx, "user-1", []model.Transaction{txn})
		assert.ErrorIs(t, err, ErrInvalidTransaction)
	})

	t.Run("negative amount", func(t *testing.T) {
		txn := sampleTransaction("user-1", 150, "COMPRA", date, model.TypeExpense)
		txn.Amount = -10
		err := store.SaveTransactions(ctx, "user-1", []model.Transaction{txn})
		assert.ErrorIs(t, err, ErrInvalidTransaction)
	})

	t.Run("empty user id", func(t *testing.T) {
		txn := sampleTransaction("user-1", 150, "COMPRA", date, model.TypeExpense)
		err := store.SaveTransactions(ctx, "  ", []model.Transaction{txn})
		assert.ErrorIs(t, err, ErrEmptyString)
	})
}

func TestFindSimilar(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	date := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)

	inWindow := sampleTransaction("user-1", 100, "PIX recebido de Maria", date, model.TypeIncome)
	wrongAmount := sampleTransaction("user-1", 300, "PIX recebido de Maria", date, model.TypeIncome)
	wrongDate := sampleTransaction("user-1", 100, "PIX recebido de Maria", date.AddDate(0, 0, 10), model.TypeIncome)
	wrongType := sampleTransaction("user-1", 100, "PIX enviado para Maria", date, model.TypeExpense)
	require.NoError(t, store.SaveTransactions(ctx, "user-1",
		[]model.Transaction{inWindow, wrongAmount, wrongDate, wrongType}))

	t.Run("amount and date window", func(t *testing.T) {
		found, err := store.FindSimilar(ctx, service.SimilarQuery{
			UserID:    "user-1",
			AmountMin: 95,
			AmountMax: 105,
			DateFrom:  date.AddDate(0, 0, -3),
			DateTo:    date.AddDate(0, 0, 3),
		})
		require.NoError(t, err)
		require.Len(t, found, 2)
	})

	t.Run("direction filter", func(t *testing.T) {
		found, err := store.FindSimilar(ctx, service.SimilarQuery{
			UserID:    "user-1",
			Type:      model.TypeIncome,
			AmountMin: 95,
			AmountMax: 105,
			DateFrom:  date.AddDate(0, 0, -3),
			DateTo:    date.AddDate(0, 0, 3),
		})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, inWindow.ID, found[0].ID)
	})

	t.Run("nothing in window", func(t *testing.T) {
		found, err := store.FindSimilar(ctx, service.SimilarQuery{
			UserID:    "user-1",
			AmountMin: 900,
			AmountMax: 950,
			DateFrom:  date.AddDate(0, 0, -3),
			DateTo:    date.AddDate(0, 0, 3),
		})
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestGetSince(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	old := sampleTransaction("user-1", 50, "compra antiga", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), model.TypeExpense)
	mid := sampleTransaction("user-1", 60, "compra recente", time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC), model.TypeExpense)
	newest := sampleTransaction("user-1", 70, "compra de hoje", time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC), model.TypeExpense)
	require.NoError(t, store.SaveTransactions(ctx, "user-1", []model.Transaction{old, mid, newest}))

	found, err := store.GetSince(ctx, "user-1", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, found, 2)

	// Newest first.
	assert.Equal(t, newest.ID, found[0].ID)
	assert.Equal(t, mid.ID, found[1].ID)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	// createTestStorage already migrated once.
	require.NoError(t, store.Migrate(ctx))
}
