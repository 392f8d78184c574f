package domain

import "github.com/shopspring/decimal"

type NotificationKind string

const (
	NotificationTransferSent     NotificationKind = "transfer_sent"
	NotificationTransferReceived NotificationKind = "transfer_received"
	NotificationWalletCredited   NotificationKind = "wallet_credited"
)

// Notification is the payload handed to the external sink. Delivery is
// best effort and never part of the financial atomic unit.
type Notification struct {
	UserEmail        string           `json:"user_email"`
	Kind             NotificationKind `json:"kind"`
	Amount           decimal.Decimal  `json:"amount"`
	NewBalance       decimal.Decimal  `json:"new_balance"`
	CounterpartyName *string          `json:"counterparty_name,omitempty"`
}
