package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelqm/concilia/internal/common"
	"github.com/rafaelqm/concilia/internal/model"
)

func sampleOrder(userID, customerName string, totalAmount float64) model.PendingOrder {
	return model.PendingOrder{
		ID:           uuid.NewString(),
		UserID:       userID,
		CustomerName: customerName,
		TotalAmount:  totalAmount,
		Status:       model.OrderPending,
		CreatedAt:    time.Now(),
	}
}

func TestFindPending(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	inBand := sampleOrder("user-1", "Maria Silva", 100.50)
	outOfBand := sampleOrder("user-1", "Maria Silva", 250.00)
	otherUser := sampleOrder("user-2", "Maria Silva", 100.50)
	require.NoError(t, store.SaveOrder(ctx, &inBand))
	require.NoError(t, store.SaveOrder(ctx, &outOfBand))
	require.NoError(t, store.SaveOrder(ctx, &otherUser))

	t.Run("amount band and user scope", func(t *testing.T) {
		found, err := store.FindPending(ctx, "user-1", 99, 101)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, inBand.ID, found[0].ID)
		assert.Equal(t, "Maria Silva", found[0].CustomerName)
		assert.Equal(t, model.OrderPending, found[0].Status)
	})

	t.Run("confirmed orders are excluded", func(t *testing.T) {
		require.NoError(t, store.ConfirmOrder(ctx, inBand.ID, "pix", time.Now()))

		found, err := store.FindPending(ctx, "user-1", 99, 101)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestConfirmOrder(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	order := sampleOrder("user-1", "Maria Silva", 100)
	require.NoError(t, store.SaveOrder(ctx, &order))

	confirmedAt := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.ConfirmOrder(ctx, order.ID, "pix", confirmedAt))

	t.Run("records payment details", func(t *testing.T) {
		got, err := store.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderConfirmed, got.Status)
		assert.Equal(t, "pix", got.PaymentMethod)
		require.NotNil(t, got.PaymentConfirmedAt)
		assert.True(t, got.PaymentConfirmedAt.Equal(confirmedAt))
	})

	t.Run("confirming twice fails", func(t *testing.T) {
		err := store.ConfirmOrder(ctx, order.ID, "pix", time.Now())
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("unknown order fails", func(t *testing.T) {
		err := store.ConfirmOrder(ctx, "missing-order", "pix", time.Now())
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestSaveOrderValidation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	t.Run("nil order", func(t *testing.T) {
		err := store.SaveOrder(ctx, nil)
		assert.ErrorIs(t, err, ErrNilParameter)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		order := sampleOrder("user-1", "Maria Silva", 0)
		err := store.SaveOrder(ctx, &order)
		assert.ErrorIs(t, err, ErrInvalidOrder)
	})
}

func TestGetOrderNotFound(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	_, err := store.GetOrder(ctx, "does-not-exist")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
