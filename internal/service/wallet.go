package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tundesanni/paylite/internal/domain"
)

type walletRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal) error
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
}

type WalletService struct {
	wallets walletRepo
	users   userRepo
}

func NewWalletService(wallets walletRepo, users userRepo) *WalletService {
	return &WalletService{wallets: wallets, users: users}
}

type BalanceView struct {
	WalletID uuid.UUID
	Balance  decimal.Decimal
	Currency domain.Currency
	UserID   uuid.UUID
	UserName string
}

func (s *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (*BalanceView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}

	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}

	return &BalanceView{
		WalletID: wallet.ID,
		Balance:  wallet.Balance,
		Currency: wallet.Currency,
		UserID:   user.ID,
		UserName: user.Name,
	}, nil
}

type UserLookup struct {
	Name   string
	Phone  string
	Exists bool
}

// LookupByPhone tells a sender who they are about to pay. It never exposes
// balances and treats an unknown phone as a normal answer, not an error.
func (s *WalletService) LookupByPhone(ctx context.Context, phone string) (*UserLookup, error) {
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &UserLookup{Exists: false}, nil
		}
		return nil, fmt.Errorf("LookupByPhone: %w", err)
	}
	return &UserLookup{Name: user.Name, Phone: user.Phone, Exists: true}, nil
}

// creditWallet and debitWallet are the only two paths that change a
// balance. Callers must hold the wallet's row lock in tx: the wallet
// argument is the FOR UPDATE snapshot, so the checked balance is the one
// the commit will replace.

func creditWallet(ctx context.Context, tx *sql.Tx, wallets walletRepo, wallet *domain.Wallet, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("creditWallet: %w", domain.ErrInvalidAmount)
	}
	newBalance := wallet.Balance.Add(amount)
	if err := wallets.UpdateBalance(ctx, tx, wallet.ID, newBalance); err != nil {
		return decimal.Zero, fmt.Errorf("creditWallet: %w", err)
	}
	return newBalance, nil
}

func debitWallet(ctx context.Context, tx *sql.Tx, wallets walletRepo, wallet *domain.Wallet, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("debitWallet: %w", domain.ErrInvalidAmount)
	}
	if wallet.Balance.LessThan(amount) {
		return decimal.Zero, fmt.Errorf("debitWallet: %w", domain.ErrInsufficientFunds)
	}
	newBalance := wallet.Balance.Sub(amount)
	if err := wallets.UpdateBalance(ctx, tx, wallet.ID, newBalance); err != nil {
		return decimal.Zero, fmt.Errorf("debitWallet: %w", err)
	}
	return newBalance, nil
}
