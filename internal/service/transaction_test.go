package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/repository"
	"github.com/tundesanni/paylite/internal/service"
	"github.com/tundesanni/paylite/internal/testutil"
)

func TestGetHistory_PaginationAndDirection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	transferSvc := setupTransferService(t, db)
	historySvc := service.NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewWalletRepository(db),
		repository.NewUserRepository(db),
	)
	ctx := context.Background()

	sender := testutil.SeedTestUser(t, db, "sender@test.com", "+919800000001", "Asha")
	recipient := testutil.SeedTestUser(t, db, "recipient@test.com", "+919800000002", "Bilal")
	testutil.SeedTestWallet(t, db, sender.ID, "500.00")
	testutil.SeedTestWallet(t, db, recipient.ID, "0.00")

	for i := range 5 {
		_, err := transferSvc.Transfer(ctx, service.TransferRequest{
			SenderUserID:   sender.ID,
			RecipientPhone: recipient.Phone,
			Amount:         decimal.RequireFromString("10.00"),
			Note:           fmt.Sprintf("payment %d", i+1),
		})
		require.NoError(t, err)
	}

	// 5 entries paged 3 at a time: 3 then 2, total count stable.
	first, err := historySvc.GetHistory(ctx, sender.ID, 0, 3)
	require.NoError(t, err)
	assert.Len(t, first.Entries, 3)
	assert.Equal(t, 5, first.TotalCount)

	second, err := historySvc.GetHistory(ctx, sender.ID, 1, 3)
	require.NoError(t, err)
	assert.Len(t, second.Entries, 2)
	assert.Equal(t, 5, second.TotalCount)

	seen := map[string]bool{}
	for _, e := range append(first.Entries, second.Entries...) {
		assert.False(t, seen[e.TxnRef], "duplicate entry across pages: %s", e.TxnRef)
		seen[e.TxnRef] = true

		assert.Equal(t, domain.DirectionSent, e.Direction)
		require.NotNil(t, e.CounterpartyName)
		assert.Equal(t, "Bilal", *e.CounterpartyName)
		require.NotNil(t, e.CounterpartyPhone)
		assert.Equal(t, recipient.Phone, *e.CounterpartyPhone)
	}

	// The recipient sees the same five entries from the other side.
	received, err := historySvc.GetHistory(ctx, recipient.ID, 0, 10)
	require.NoError(t, err)
	assert.Len(t, received.Entries, 5)
	for _, e := range received.Entries {
		assert.Equal(t, domain.DirectionReceived, e.Direction)
		require.NotNil(t, e.CounterpartyName)
		assert.Equal(t, "Asha", *e.CounterpartyName)
	}
}

func TestGetByRef(t *testing.T) {
	db := testutil.SetupTestDB(t)
	transferSvc := setupTransferService(t, db)
	historySvc := service.NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewWalletRepository(db),
		repository.NewUserRepository(db),
	)
	ctx := context.Background()

	sender := testutil.SeedTestUser(t, db, "sender@test.com", "+919800000001", "Asha")
	recipient := testutil.SeedTestUser(t, db, "recipient@test.com", "+919800000002", "Bilal")
	outsider := testutil.SeedTestUser(t, db, "outsider@test.com", "+919800000003", "Chitra")
	testutil.SeedTestWallet(t, db, sender.ID, "100.00")
	testutil.SeedTestWallet(t, db, recipient.ID, "0.00")
	testutil.SeedTestWallet(t, db, outsider.ID, "0.00")

	result, err := transferSvc.Transfer(ctx, service.TransferRequest{
		SenderUserID:   sender.ID,
		RecipientPhone: recipient.Phone,
		Amount:         decimal.RequireFromString("20.00"),
	})
	require.NoError(t, err)

	// Both parties resolve the same ref with opposite directions.
	senderView, err := historySvc.GetByRef(ctx, sender.ID, result.TxnRef)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionSent, senderView.Direction)

	recipientView, err := historySvc.GetByRef(ctx, recipient.ID, result.TxnRef)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionReceived, recipientView.Direction)
	assert.True(t, recipientView.Amount.Equal(senderView.Amount))

	// A third party gets not-found, not someone else's entry.
	_, err = historySvc.GetByRef(ctx, outsider.ID, result.TxnRef)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = historySvc.GetByRef(ctx, sender.ID, "no-such-ref")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetHistory_CreditHasNoCounterparty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	paymentSvc := setupPaymentService(t, db)
	historySvc := service.NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewWalletRepository(db),
		repository.NewUserRepository(db),
	)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "+919800000001", "Asha")
	testutil.SeedTestWallet(t, db, user.ID, "0.00")
	order := testutil.SeedPaymentOrder(t, db, user.ID, "order_hist", "75.00")
	require.NoError(t, paymentSvc.HandlePaymentSuccess(ctx, order.OrderID, "pay_hist", 7500))

	page, err := historySvc.GetHistory(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)

	entry := page.Entries[0]
	assert.Equal(t, domain.TransactionTypeCredit, entry.Type)
	assert.Equal(t, domain.DirectionReceived, entry.Direction)
	assert.Nil(t, entry.CounterpartyName)
	assert.Nil(t, entry.CounterpartyPhone)
	assert.True(t, entry.Amount.Equal(decimal.RequireFromString("75.00")))
}
