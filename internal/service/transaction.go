package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tundesanni/paylite/internal/domain"
)

type TransactionService struct {
	transactions transactionRepo
	wallets      walletRepo
	users        userRepo
}

func NewTransactionService(transactions transactionRepo, wallets walletRepo, users userRepo) *TransactionService {
	return &TransactionService{transactions: transactions, wallets: wallets, users: users}
}

// TransactionView is a ledger entry projected for one viewer: direction
// and counterparty depend on which side of the entry the viewing wallet is.
type TransactionView struct {
	TxnRef            string
	Direction         domain.Direction
	Type              domain.TransactionType
	Amount            decimal.Decimal
	Status            domain.TransactionStatus
	Description       string
	CounterpartyName  *string
	CounterpartyPhone *string
	CreatedAt         time.Time
}

type HistoryPage struct {
	Entries    []TransactionView
	Page       int
	PageSize   int
	TotalCount int
}

func (s *TransactionService) GetHistory(ctx context.Context, userID uuid.UUID, page, pageSize int) (*HistoryPage, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetHistory: %w", err)
	}

	txns, total, err := s.transactions.GetByWalletID(ctx, wallet.ID, pageSize, page*pageSize)
	if err != nil {
		return nil, fmt.Errorf("GetHistory: %w", err)
	}

	views := make([]TransactionView, 0, len(txns))
	counterparties := map[uuid.UUID]*domain.User{}
	for i := range txns {
		view, err := s.project(ctx, &txns[i], wallet.ID, counterparties)
		if err != nil {
			return nil, fmt.Errorf("GetHistory: %w", err)
		}
		views = append(views, *view)
	}

	return &HistoryPage{
		Entries:    views,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	}, nil
}

// GetByRef returns the entry only when the viewer's wallet is a party to
// it. Entries of other users answer not-found, indistinguishable from a
// reference that never existed.
func (s *TransactionService) GetByRef(ctx context.Context, userID uuid.UUID, txnRef string) (*TransactionView, error) {
	wallet, err := s.wallets.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetByRef: %w", err)
	}

	txn, err := s.transactions.GetByRef(ctx, txnRef)
	if err != nil {
		return nil, fmt.Errorf("GetByRef: %w", err)
	}

	if !txn.InvolvesWallet(wallet.ID) {
		return nil, fmt.Errorf("GetByRef: %w", domain.ErrNotFound)
	}

	return s.project(ctx, txn, wallet.ID, map[uuid.UUID]*domain.User{})
}

// project resolves per-viewer direction and, for transfers, the
// counterparty identity through explicit wallet and user lookups. The
// cache keeps a page full of entries from repeating the same lookups.
func (s *TransactionService) project(ctx context.Context, txn *domain.Transaction, viewerWalletID uuid.UUID, cache map[uuid.UUID]*domain.User) (*TransactionView, error) {
	view := &TransactionView{
		TxnRef:      txn.TxnRef,
		Direction:   txn.DirectionFor(viewerWalletID),
		Type:        txn.Type,
		Amount:      txn.Amount,
		Status:      txn.Status,
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt,
	}

	counterpartyWalletID := txn.CounterpartyWalletFor(viewerWalletID)
	if counterpartyWalletID == nil {
		return view, nil
	}

	counterparty, ok := cache[*counterpartyWalletID]
	if !ok {
		wallet, err := s.wallets.GetByID(ctx, *counterpartyWalletID)
		if err != nil {
			return nil, fmt.Errorf("project: counterparty wallet: %w", err)
		}
		counterparty, err = s.users.GetByID(ctx, wallet.UserID)
		if err != nil {
			return nil, fmt.Errorf("project: counterparty user: %w", err)
		}
		cache[*counterpartyWalletID] = counterparty
	}

	view.CounterpartyName = &counterparty.Name
	view.CounterpartyPhone = &counterparty.Phone
	return view, nil
}
