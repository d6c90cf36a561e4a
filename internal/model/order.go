package model

import "time"

// OrderStatus tracks the lifecycle of an e-commerce order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCanceled  OrderStatus = "canceled"
)

// PendingOrder is an e-commerce order awaiting payment, queried during
// reconciliation. Owned by the order store; referenced here, not mutated
// except through OrderStore.ConfirmOrder.
type PendingOrder struct {
	CreatedAt          time.Time
	PaymentConfirmedAt *time.Time
	ID                 string
	UserID             string
	CustomerName       string
	PaymentMethod      string
	Status             OrderStatus
	TotalAmount        float64
}
