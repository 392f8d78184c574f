package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/logging"
	"github.com/tundesanni/paylite/internal/metrics"
)

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error
	GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
	GetByRef(ctx context.Context, txnRef string) (*domain.Transaction, error)
}

type notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

type TransferService struct {
	users        userRepo
	wallets      walletRepo
	transactions transactionRepo
	notifier     notifier
	db           *sql.DB
}

func NewTransferService(users userRepo, wallets walletRepo, transactions transactionRepo, notifier notifier, db *sql.DB) *TransferService {
	return &TransferService{
		users:        users,
		wallets:      wallets,
		transactions: transactions,
		notifier:     notifier,
		db:           db,
	}
}

type TransferRequest struct {
	SenderUserID   uuid.UUID
	RecipientPhone string
	Amount         decimal.Decimal
	Note           string
}

type TransferResult struct {
	TxnRef           string
	SenderName       string
	RecipientName    string
	RecipientPhone   string
	Amount           decimal.Decimal
	Status           domain.TransactionStatus
	Note             string
	NewSenderBalance decimal.Decimal
}

// Transfer moves funds between two wallets. The debit, the credit and the
// single TRANSFER ledger entry commit together or not at all; both wallet
// rows are locked in ascending wallet-id order regardless of which side is
// sending, so opposite transfers over the same pair cannot deadlock.
func (s *TransferService) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	timer := prometheus.NewTimer(metrics.TransferDuration)
	defer timer.ObserveDuration()

	result, err := s.transfer(ctx, req)
	metrics.TransfersTotal.WithLabelValues(transferOutcome(err)).Inc()
	return result, err
}

func (s *TransferService) transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	log := logging.FromContext(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("Transfer: %w", domain.ErrInvalidAmount)
	}

	sender, err := s.users.GetByID(ctx, req.SenderUserID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: sender: %w", err)
	}

	// Reject self-transfers before any wallet is even looked up.
	if sender.Phone == req.RecipientPhone {
		log.Warn("self transfer blocked", "user_id", sender.ID)
		return nil, fmt.Errorf("Transfer: %w", domain.ErrSelfTransfer)
	}

	recipient, err := s.users.GetByPhone(ctx, req.RecipientPhone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Transfer: recipient: %w", domain.ErrUserNotFound)
		}
		return nil, fmt.Errorf("Transfer: recipient: %w", err)
	}

	senderWallet, err := s.wallets.GetByUserID(ctx, sender.ID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	recipientWallet, err := s.wallets.GetByUserID(ctx, recipient.ID)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	txn, newSenderBalance, newRecipientBalance, err := s.execute(ctx, req, senderWallet.ID, recipientWallet.ID, recipient.Name)
	if err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}

	log.Info("transfer completed",
		"txn_ref", txn.TxnRef,
		"sender_wallet", senderWallet.ID,
		"recipient_wallet", recipientWallet.ID,
		"amount", req.Amount,
	)

	s.notifyParties(ctx, sender, recipient, req.Amount, newSenderBalance, newRecipientBalance)

	return &TransferResult{
		TxnRef:           txn.TxnRef,
		SenderName:       sender.Name,
		RecipientName:    recipient.Name,
		RecipientPhone:   recipient.Phone,
		Amount:           req.Amount,
		Status:           txn.Status,
		Note:             req.Note,
		NewSenderBalance: newSenderBalance,
	}, nil
}

func (s *TransferService) execute(ctx context.Context, req TransferRequest, senderWalletID, recipientWalletID uuid.UUID, recipientName string) (*domain.Transaction, decimal.Decimal, decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("execute: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := lockWalletsInOrder(ctx, tx, s.wallets, senderWalletID, recipientWalletID)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("execute: %w", err)
	}

	senderWallet, recipientWallet := locked[senderWalletID], locked[recipientWalletID]

	// Funds check happens here, on the locked row, never on the earlier
	// unlocked read.
	if senderWallet.Balance.LessThan(req.Amount) {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("execute: %w", domain.ErrInsufficientFunds)
	}

	newSenderBalance, err := debitWallet(ctx, tx, s.wallets, senderWallet, req.Amount)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("execute: %w", err)
	}
	newRecipientBalance, err := creditWallet(ctx, tx, s.wallets, recipientWallet, req.Amount)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("execute: %w", err)
	}

	description := "Transfer to " + recipientName
	if req.Note != "" {
		description = "Transfer: " + req.Note
	}

	txn := domain.NewTransfer(senderWalletID, recipientWalletID, req.Amount, description)
	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("execute: record transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("execute: commit: %w", err)
	}

	return txn, newSenderBalance, newRecipientBalance, nil
}

// notifyParties runs after commit. Failures are logged and counted, never
// surfaced: the money has already moved.
func (s *TransferService) notifyParties(ctx context.Context, sender, recipient *domain.User, amount, senderBalance, recipientBalance decimal.Decimal) {
	log := logging.FromContext(ctx)

	if err := s.notifier.Notify(ctx, domain.Notification{
		UserEmail:        sender.Email,
		Kind:             domain.NotificationTransferSent,
		Amount:           amount,
		NewBalance:       senderBalance,
		CounterpartyName: &recipient.Name,
	}); err != nil {
		metrics.NotificationFailures.Inc()
		log.Error("failed to notify sender", "user_id", sender.ID, "error", err)
	}

	if err := s.notifier.Notify(ctx, domain.Notification{
		UserEmail:        recipient.Email,
		Kind:             domain.NotificationTransferReceived,
		Amount:           amount,
		NewBalance:       recipientBalance,
		CounterpartyName: &sender.Name,
	}); err != nil {
		metrics.NotificationFailures.Inc()
		log.Error("failed to notify recipient", "user_id", recipient.ID, "error", err)
	}
}

// lockWalletsInOrder acquires FOR UPDATE locks in ascending wallet-id
// order, independent of sender/recipient role. Locking in request order
// instead would deadlock when two opposite transfers over the same pair run
// concurrently.
func lockWalletsInOrder(ctx context.Context, tx *sql.Tx, wallets walletRepo, ids ...uuid.UUID) (map[uuid.UUID]*domain.Wallet, error) {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Wallet, len(ids))
	for _, id := range sorted {
		w, err := wallets.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockWalletsInOrder: %w", err)
		}
		result[id] = w
	}
	return result, nil
}

func transferOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrInsufficientFunds):
		return metrics.OutcomeInsufficientFunds
	case errors.Is(err, domain.ErrSelfTransfer),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUserNotFound):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
