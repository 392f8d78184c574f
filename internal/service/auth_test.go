package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/repository"
	"github.com/tundesanni/paylite/internal/service"
	"github.com/tundesanni/paylite/internal/testutil"
)

func TestRegister_CreatesUserAndWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewWalletRepository(db),
		db,
	)
	ctx := context.Background()

	user, err := svc.Register(ctx, service.RegisterRequest{
		Name:     "Asha",
		Email:    "asha@test.com",
		Phone:    "+919800000001",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha@test.com", user.Email)

	wallet, err := repository.NewWalletRepository(db).GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.Zero))
	assert.Equal(t, domain.CurrencyINR, wallet.Currency)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewWalletRepository(db),
		db,
	)
	ctx := context.Background()

	req := service.RegisterRequest{
		Name:     "Asha",
		Email:    "asha@test.com",
		Phone:    "+919800000001",
		Password: "password123",
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	req.Phone = "+919800000002"
	_, err = svc.Register(ctx, req)
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestRegister_DuplicatePhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewWalletRepository(db),
		db,
	)
	ctx := context.Background()

	_, err := svc.Register(ctx, service.RegisterRequest{
		Name:     "Asha",
		Email:    "asha@test.com",
		Phone:    "+919800000001",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, service.RegisterRequest{
		Name:     "Bilal",
		Email:    "bilal@test.com",
		Phone:    "+919800000001",
		Password: "password123",
	})
	require.ErrorIs(t, err, domain.ErrPhoneTaken)
}

func TestAuthenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewWalletRepository(db),
		db,
	)
	ctx := context.Background()

	registered, err := svc.Register(ctx, service.RegisterRequest{
		Name:     "Asha",
		Email:    "asha@test.com",
		Phone:    "+919800000001",
		Password: "password123",
	})
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "asha@test.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	// Wrong password and unknown email look identical to the caller.
	_, err = svc.Authenticate(ctx, "asha@test.com", "wrong-password")
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.Authenticate(ctx, "nobody@test.com", "password123")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLookupByPhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewWalletService(
		repository.NewWalletRepository(db),
		repository.NewUserRepository(db),
	)
	ctx := context.Background()

	testutil.SeedTestUser(t, db, "asha@test.com", "+919800000001", "Asha")

	found, err := svc.LookupByPhone(ctx, "+919800000001")
	require.NoError(t, err)
	assert.True(t, found.Exists)
	assert.Equal(t, "Asha", found.Name)

	missing, err := svc.LookupByPhone(ctx, "+919899999999")
	require.NoError(t, err)
	assert.False(t, missing.Exists)
	assert.Empty(t, missing.Name)
}

func TestGetBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewWalletService(
		repository.NewWalletRepository(db),
		repository.NewUserRepository(db),
	)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "asha@test.com", "+919800000001", "Asha")
	wallet := testutil.SeedTestWallet(t, db, user.ID, "42.50")

	view, err := svc.GetBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, view.WalletID)
	assert.True(t, view.Balance.Equal(decimal.RequireFromString("42.50")))
	assert.Equal(t, "Asha", view.UserName)
}
