package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Currency string

const CurrencyINR Currency = "INR"

// Wallet holds one user's balance. Exactly one wallet exists per user,
// created at registration. Balance never goes below zero; every mutation
// happens under a row lock inside a single transaction.
type Wallet struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Balance   decimal.Decimal
	Currency  Currency
	CreatedAt time.Time
}
