package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/repository"
	"github.com/tundesanni/paylite/internal/service"
	"github.com/tundesanni/paylite/internal/testutil"
)

type stubGateway struct {
	mu     sync.Mutex
	orders int
}

func (g *stubGateway) CreateOrder(ctx context.Context, amountMinor int64, currency domain.Currency, receipt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders++
	return fmt.Sprintf("order_stub_%d", g.orders), nil
}

func setupPaymentService(t *testing.T, db *sql.DB) *service.PaymentService {
	t.Helper()
	return service.NewPaymentService(
		repository.NewPaymentOrderRepository(db),
		repository.NewUserRepository(db),
		repository.NewWalletRepository(db),
		repository.NewTransactionRepository(db),
		&stubGateway{},
		noopNotifier{},
		db,
		"key_test",
	)
}

func TestCreateOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "+919800000001", "Asha")
	testutil.SeedTestWallet(t, db, user.ID, "0.00")

	order, err := svc.CreateOrder(ctx, user.ID, decimal.RequireFromString("250.00"))

	require.NoError(t, err)
	assert.Equal(t, "order_stub_1", order.OrderID)
	assert.Equal(t, domain.PaymentOrderStatusCreated, order.Status)
	assert.Equal(t, domain.CurrencyINR, order.Currency)
	assert.Equal(t, "key_test", order.KeyID)

	stored, err := repository.NewPaymentOrderRepository(db).GetByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Nil(t, stored.PaymentID)
	assert.Equal(t, user.ID, stored.UserID)
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("250.00")))
}

func TestCreateOrder_InvalidAmount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "+919800000001", "Asha")

	_, err := svc.CreateOrder(ctx, user.ID, decimal.Zero)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestHandlePaymentSuccess_CreditsWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "+919800000001", "Asha")
	wallet := testutil.SeedTestWallet(t, db, user.ID, "10.00")
	order := testutil.SeedPaymentOrder(t, db, user.ID, "order_abc", "250.00")

	// 25000 paise = 250.00 rupees.
	err := svc.HandlePaymentSuccess(ctx, order.OrderID, "pay_123", 25000)
	require.NoError(t, err)

	assert.True(t, testutil.GetWalletBalance(t, db, wallet.ID).Equal(decimal.RequireFromString("260.00")))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, wallet.ID))

	stored, err := repository.NewPaymentOrderRepository(db).GetByOrderID(ctx, order.OrderID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, "pay_123", *stored.PaymentID)
	assert.Equal(t, domain.PaymentOrderStatusPaid, stored.Status)
	require.NotNil(t, stored.PaidAt)
}

func TestHandlePaymentSuccess_DuplicateDeliveryCreditsOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "+919800000001", "Asha")
	wallet := testutil.SeedTestWallet(t, db, user.ID, "0.00")
	order := testutil.SeedPaymentOrder(t, db, user.ID, "order_dup", "100.00")

	require.NoError(t, svc.HandlePaymentSuccess(ctx, order.OrderID, "pay_dup", 10000))

	// Redelivery of the same event succeeds but changes nothing.
	require.NoError(t, svc.HandlePaymentSuccess(ctx, order.OrderID, "pay_dup", 10000))

	assert.True(t, testutil.GetWalletBalance(t, db, wallet.ID).Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, wallet.ID))
}

func TestHandlePaymentSuccess_ConcurrentDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "+919800000001", "Asha")
	wallet := testutil.SeedTestWallet(t, db, user.ID, "0.00")
	order := testutil.SeedPaymentOrder(t, db, user.ID, "order_race", "50.00")

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.HandlePaymentSuccess(ctx, order.OrderID, "pay_race", 5000)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.True(t, testutil.GetWalletBalance(t, db, wallet.ID).Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, db, wallet.ID))
}

func TestHandlePaymentSuccess_OrderNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	err := svc.HandlePaymentSuccess(ctx, "order_missing", "pay_x", 1000)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestHandlePaymentSuccess_MinorUnitConversion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupPaymentService(t, db)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "+919800000001", "Asha")
	wallet := testutil.SeedTestWallet(t, db, user.ID, "0.00")
	order := testutil.SeedPaymentOrder(t, db, user.ID, "order_paise", "0.01")

	// A single paisa converts exactly, no float rounding.
	require.NoError(t, svc.HandlePaymentSuccess(ctx, order.OrderID, "pay_paise", 1))
	assert.True(t, testutil.GetWalletBalance(t, db, wallet.ID).Equal(decimal.RequireFromString("0.01")))
}
