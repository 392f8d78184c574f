package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentOrderStatus string

const (
	PaymentOrderStatusCreated  PaymentOrderStatus = "CREATED"
	PaymentOrderStatusPaid     PaymentOrderStatus = "PAID"
	PaymentOrderStatusFailed   PaymentOrderStatus = "FAILED"
	PaymentOrderStatusRefunded PaymentOrderStatus = "REFUNDED"
)

// PaymentOrder tracks one gateway-side top-up order from creation to
// settlement. PaymentID stays nil until the gateway confirms payment; once
// set it is never overwritten and acts as the idempotency marker for
// duplicate webhook deliveries.
type PaymentOrder struct {
	ID        uuid.UUID
	OrderID   string
	PaymentID *string
	UserID    uuid.UUID
	Amount    decimal.Decimal
	Currency  Currency
	Receipt   string
	Status    PaymentOrderStatus
	CreatedAt time.Time
	PaidAt    *time.Time
}
