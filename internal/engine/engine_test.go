package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelqm/concilia/internal/common"
	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/testutil"
)

func newTestEngine(t *testing.T, cfg Config) (*Engine, *testutil.TestDB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	eng, err := NewWithConfig(db.Storage, db.Storage, db.Storage, cfg)
	require.NoError(t, err)
	return eng, db
}

func TestProcessCSVEndToEnd(t *testing.T) {
	ctx := context.Background()
	eng, db := newTestEngine(t, DefaultConfig())

	data := []byte("Data,Valor,Descrição\n" +
		"01/08/2025,-150.00,COMPRA CARTAO MERCADO EXTRA\n" +
		"02/08/2025,-45.00,Posto Shell\n")

	result, err := eng.Process(ctx, data, "csv", model.ContextPersonal, "user-1")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Transactions, 2)

	t.Run("classified and categorized", func(t *testing.T) {
		first := result.Transactions[0]
		assert.Equal(t, model.StatusNewTransaction, first.Outcome.Status)
		assert.Equal(t, "Alimentação e Bebidas", first.Category)
		assert.InDelta(t, 150.00, first.Amount, 0.001)
		assert.Equal(t, "user-1", first.UserID)
		assert.Greater(t, first.QualityScore, 0.0)

		assert.Equal(t, "Transporte e Combustível", result.Transactions[1].Category)
	})

	t.Run("persisted with categories", func(t *testing.T) {
		found, err := db.Storage.FindByContentHash(ctx, "user-1", result.Transactions[0].ContentHash)
		require.NoError(t, err)
		assert.Len(t, found, 1)

		categories, err := db.Storage.GetCategories(ctx)
		require.NoError(t, err)
		names := make([]string, 0, len(categories))
		for _, c := range categories {
			names = append(names, c.Name)
		}
		assert.Contains(t, names, "Alimentação e Bebidas")
		assert.Contains(t, names, "Transporte e Combustível")
	})

	t.Run("reprocessing the same file only finds duplicates", func(t *testing.T) {
		rerun, err := eng.Process(ctx, data, "csv", model.ContextPersonal, "user-1")
		require.NoError(t, err)

		assert.Equal(t, 2, rerun.Summary.Stats.IgnoredDuplicates)
		assert.Zero(t, rerun.Summary.Stats.NewTransactions)

		found, err := db.Storage.FindByContentHash(ctx, "user-1", result.Transactions[0].ContentHash)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})
}

func TestProcessReconcilesPIXWithOrder(t *testing.T) {
	ctx := context.Background()
	eng, db := newTestEngine(t, DefaultConfig())

	order := db.SeedOrder("user-1", "Maria Silva Santos", 1200.00)

	data := []byte("Data,Valor,Descrição\n" +
		"01/08/2025,1200.00,PIX recebido de Maria Silva\n")

	result, err := eng.Process(ctx, data, "csv", model.ContextEcommerce, "user-1")
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)

	txn := result.Transactions[0]
	require.NotNil(t, txn.Outcome)
	assert.Equal(t, model.StatusReconciledWithOrder, txn.Outcome.Status)
	assert.Equal(t, order.ID, txn.Outcome.MatchedOrderID)
	assert.Equal(t, "Maria Silva Santos", txn.Outcome.CustomerName)
	assert.True(t, txn.Outcome.AutoConfirmed)

	t.Run("order confirmed in storage", func(t *testing.T) {
		confirmed, err := db.Storage.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderConfirmed, confirmed.Status)
		assert.Equal(t, "pix", confirmed.PaymentMethod)
		require.NotNil(t, confirmed.PaymentConfirmedAt)
	})

	t.Run("reconciliation recommendation surfaced", func(t *testing.T) {
		types := make([]string, 0, len(result.Recommendations))
		for _, rec := range result.Recommendations {
			types = append(types, rec.Type)
		}
		assert.Contains(t, types, "order_reconciliation")
	})

	t.Run("reprocessing does not flip the order back", func(t *testing.T) {
		rerun, err := eng.Process(ctx, data, "csv", model.ContextEcommerce, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, rerun.Summary.Stats.IgnoredDuplicates)

		confirmed, err := db.Storage.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderConfirmed, confirmed.Status)
	})
}

func TestProcessDryRun(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.DryRun = true
	eng, db := newTestEngine(t, cfg)

	data := []byte("Data,Valor,Descrição\n01/08/2025,-150.00,COMPRA MERCADO\n")

	result, err := eng.Process(ctx, data, "csv", model.ContextPersonal, "user-1")
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)

	found, err := db.Storage.FindByContentHash(ctx, "user-1", result.Transactions[0].ContentHash)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestProcessErrors(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t, DefaultConfig())

	t.Run("missing user id", func(t *testing.T) {
		_, err := eng.Process(ctx, []byte("x"), "csv", model.ContextPersonal, "")
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := eng.Process(ctx, []byte("x"), "docx", model.ContextPersonal, "user-1")
		assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := eng.Process(ctx, nil, "csv", model.ContextPersonal, "user-1")
		assert.ErrorIs(t, err, common.ErrEmptyDocument)
	})

	t.Run("no parseable transactions", func(t *testing.T) {
		data := []byte("Data,Valor\nsem data,sem valor\n")
		_, err := eng.Process(ctx, data, "csv", model.ContextPersonal, "user-1")
		assert.ErrorIs(t, err, common.ErrNoTransactions)
	})
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	eng, db := newTestEngine(t, DefaultConfig())

	now := time.Now().UTC()
	db.SeedTransaction("user-1", 150, "COMPRA MERCADO", now.Add(-24*time.Hour), model.TypeExpense)
	db.SeedTransaction("user-1", 1200, "PIX recebido de Maria", now.Add(-48*time.Hour), model.TypeIncome)
	db.SeedTransaction("user-1", 999, "compra antiga", now.Add(-90*24*time.Hour), model.TypeExpense)

	stats, err := eng.Statistics(ctx, "user-1", 30*24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "30_days", stats.Period)
	assert.Equal(t, 2, stats.Total)
	assert.InDelta(t, 1200, stats.Financial.TotalIncome, 0.001)
	assert.InDelta(t, 150, stats.Financial.TotalExpense, 0.001)
}
