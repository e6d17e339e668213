package models

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "Completed"
	TransactionFailed    TransactionStatus = "Failed"
)

// Transaction records the settled payment for an order. Rows are written
// once, in the same database transaction as their order, and never updated.
type Transaction struct {
	ID                uuid.UUID         `json:"id"`
	OrderID           uuid.UUID         `json:"order_id"`
	UserID            uuid.UUID         `json:"user_id"`
	TransactionNumber string            `json:"transaction_number"`
	MerchandiseCents  int               `json:"merchandise_subtotal_cents"`
	ShippingCents     int               `json:"shipping_subtotal_cents"`
	TotalAmountCents  int               `json:"total_amount_cents"`
	PaymentMethod     string            `json:"payment_method"`
	Status            TransactionStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
}
