package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeCredit   TransactionType = "CREDIT"
	TransactionTypeDebit    TransactionType = "DEBIT"
	TransactionTypeTransfer TransactionType = "TRANSFER"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

type Direction string

const (
	DirectionSent     Direction = "SENT"
	DirectionReceived Direction = "RECEIVED"
)

// Transaction is an append-only ledger entry. It is never updated or
// deleted after creation. CREDIT entries have no sender wallet (external
// deposit), DEBIT entries have no receiver wallet (external withdrawal),
// TRANSFER entries reference both.
type Transaction struct {
	ID               uuid.UUID
	TxnRef           string
	SenderWalletID   *uuid.UUID
	ReceiverWalletID *uuid.UUID
	Amount           decimal.Decimal
	Type             TransactionType
	Status           TransactionStatus
	Description      string
	CreatedAt        time.Time
}

// NewCredit records money entering the system into a wallet.
func NewCredit(walletID uuid.UUID, amount decimal.Decimal, description string) *Transaction {
	return &Transaction{
		ID:               uuid.New(),
		TxnRef:           uuid.NewString(),
		ReceiverWalletID: &walletID,
		Amount:           amount,
		Type:             TransactionTypeCredit,
		Status:           TransactionStatusSuccess,
		Description:      description,
		CreatedAt:        time.Now().UTC(),
	}
}

// NewDebit records money leaving the system from a wallet.
func NewDebit(walletID uuid.UUID, amount decimal.Decimal, description string) *Transaction {
	return &Transaction{
		ID:             uuid.New(),
		TxnRef:         uuid.NewString(),
		SenderWalletID: &walletID,
		Amount:         amount,
		Type:           TransactionTypeDebit,
		Status:         TransactionStatusSuccess,
		Description:    description,
		CreatedAt:      time.Now().UTC(),
	}
}

// NewTransfer records a wallet-to-wallet movement. Both parties resolve to
// this same entry by TxnRef.
func NewTransfer(senderWalletID, receiverWalletID uuid.UUID, amount decimal.Decimal, description string) *Transaction {
	return &Transaction{
		ID:               uuid.New(),
		TxnRef:           uuid.NewString(),
		SenderWalletID:   &senderWalletID,
		ReceiverWalletID: &receiverWalletID,
		Amount:           amount,
		Type:             TransactionTypeTransfer,
		Status:           TransactionStatusSuccess,
		Description:      description,
		CreatedAt:        time.Now().UTC(),
	}
}

// DirectionFor derives how the entry reads from a given wallet's point of
// view: credits are always RECEIVED, debits always SENT, and a transfer is
// SENT when the viewing wallet is the sender.
func (t *Transaction) DirectionFor(walletID uuid.UUID) Direction {
	switch t.Type {
	case TransactionTypeCredit:
		return DirectionReceived
	case TransactionTypeDebit:
		return DirectionSent
	default:
		if t.SenderWalletID != nil && *t.SenderWalletID == walletID {
			return DirectionSent
		}
		return DirectionReceived
	}
}

// CounterpartyWalletFor returns the wallet on the other side of a transfer,
// or nil when there is none (external credit/debit, or the viewer is not a
// party).
func (t *Transaction) CounterpartyWalletFor(walletID uuid.UUID) *uuid.UUID {
	if t.Type != TransactionTypeTransfer {
		return nil
	}
	if t.SenderWalletID != nil && *t.SenderWalletID == walletID {
		return t.ReceiverWalletID
	}
	if t.ReceiverWalletID != nil && *t.ReceiverWalletID == walletID {
		return t.SenderWalletID
	}
	return nil
}

// InvolvesWallet reports whether the wallet is sender or receiver of the
// entry. History lookups must treat entries of other users as not found.
func (t *Transaction) InvolvesWallet(walletID uuid.UUID) bool {
	if t.SenderWalletID != nil && *t.SenderWalletID == walletID {
		return true
	}
	if t.ReceiverWalletID != nil && *t.ReceiverWalletID == walletID {
		return true
	}
	return false
}
