package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tundesanni/paylite/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func SeedTestUser(t *testing.T, db *sql.DB, email, phone, name string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Phone:        phone,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, phone, name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.Phone, u.Name, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SeedTestWallet(t *testing.T, db *sql.DB, userID uuid.UUID, balance string) *domain.Wallet {
	t.Helper()

	w := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   decimal.RequireFromString(balance),
		Currency:  domain.CurrencyINR,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO wallets (id, user_id, balance, currency, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.UserID, w.Balance, w.Currency, w.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test wallet for user %s: %v", userID, err)
	}
	return w
}

func GetWalletBalance(t *testing.T, db *sql.DB, walletID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM wallets WHERE id = $1`, walletID).Scan(&balance)
	if err != nil {
		t.Fatalf("get wallet balance %s: %v", walletID, err)
	}
	return balance
}

func CountLedgerEntries(t *testing.T, db *sql.DB, walletID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM transactions
		 WHERE sender_wallet_id = $1 OR receiver_wallet_id = $1`, walletID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for wallet %s: %v", walletID, err)
	}
	return count
}

func SeedPaymentOrder(t *testing.T, db *sql.DB, userID uuid.UUID, orderID, amount string) *domain.PaymentOrder {
	t.Helper()

	o := &domain.PaymentOrder{
		ID:        uuid.New(),
		OrderID:   orderID,
		UserID:    userID,
		Amount:    decimal.RequireFromString(amount),
		Currency:  domain.CurrencyINR,
		Receipt:   "receipt_test",
		Status:    domain.PaymentOrderStatusCreated,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO payment_orders (id, order_id, payment_id, user_id, amount, currency, receipt, status, created_at, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.OrderID, o.PaymentID, o.UserID, o.Amount, o.Currency, o.Receipt, o.Status, o.CreatedAt, o.PaidAt,
	)
	if err != nil {
		t.Fatalf("seed payment order %s: %v", orderID, err)
	}
	return o
}
