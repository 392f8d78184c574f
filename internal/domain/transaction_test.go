package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionFor(t *testing.T) {
	sender := uuid.New()
	receiver := uuid.New()
	amount := decimal.RequireFromString("10.00")

	transfer := NewTransfer(sender, receiver, amount, "test")
	credit := NewCredit(receiver, amount, "test")
	debit := NewDebit(sender, amount, "test")

	assert.Equal(t, DirectionSent, transfer.DirectionFor(sender))
	assert.Equal(t, DirectionReceived, transfer.DirectionFor(receiver))
	assert.Equal(t, DirectionReceived, credit.DirectionFor(receiver))
	assert.Equal(t, DirectionSent, debit.DirectionFor(sender))
}

func TestCounterpartyWalletFor(t *testing.T) {
	sender := uuid.New()
	receiver := uuid.New()
	other := uuid.New()
	amount := decimal.RequireFromString("10.00")

	transfer := NewTransfer(sender, receiver, amount, "test")

	got := transfer.CounterpartyWalletFor(sender)
	require.NotNil(t, got)
	assert.Equal(t, receiver, *got)

	got = transfer.CounterpartyWalletFor(receiver)
	require.NotNil(t, got)
	assert.Equal(t, sender, *got)

	// Not a party, no counterparty.
	assert.Nil(t, transfer.CounterpartyWalletFor(other))

	// External movements have no counterparty wallet.
	credit := NewCredit(receiver, amount, "test")
	assert.Nil(t, credit.CounterpartyWalletFor(receiver))
}

func TestInvolvesWallet(t *testing.T) {
	sender := uuid.New()
	receiver := uuid.New()
	other := uuid.New()
	amount := decimal.RequireFromString("10.00")

	transfer := NewTransfer(sender, receiver, amount, "test")
	assert.True(t, transfer.InvolvesWallet(sender))
	assert.True(t, transfer.InvolvesWallet(receiver))
	assert.False(t, transfer.InvolvesWallet(other))

	credit := NewCredit(receiver, amount, "test")
	assert.True(t, credit.InvolvesWallet(receiver))
	assert.False(t, credit.InvolvesWallet(sender))
}

func TestConstructorsShareNoState(t *testing.T) {
	a := NewTransfer(uuid.New(), uuid.New(), decimal.RequireFromString("1.00"), "")
	b := NewTransfer(uuid.New(), uuid.New(), decimal.RequireFromString("1.00"), "")

	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.TxnRef, b.TxnRef)
	assert.Equal(t, TransactionStatusSuccess, a.Status)
}
