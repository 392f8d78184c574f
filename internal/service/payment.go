package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tundesanni/paylite/internal/domain"
	"github.com/tundesanni/paylite/internal/logging"
	"github.com/tundesanni/paylite/internal/metrics"
)

type orderRepo interface {
	Create(ctx context.Context, order *domain.PaymentOrder) error
	GetByOrderIDForUpdate(ctx context.Context, tx *sql.Tx, orderID string) (*domain.PaymentOrder, error)
	MarkPaid(ctx context.Context, tx *sql.Tx, id uuid.UUID, paymentID string, paidAt time.Time) error
}

type gatewayClient interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency domain.Currency, receipt string) (string, error)
}

type PaymentService struct {
	orders   orderRepo
	users    userRepo
	wallets  walletRepo
	ledger   transactionRepo
	gateway  gatewayClient
	notifier notifier
	db       *sql.DB
	keyID    string
}

func NewPaymentService(orders orderRepo, users userRepo, wallets walletRepo, ledger transactionRepo, gateway gatewayClient, notifier notifier, db *sql.DB, keyID string) *PaymentService {
	return &PaymentService{
		orders:   orders,
		users:    users,
		wallets:  wallets,
		ledger:   ledger,
		gateway:  gateway,
		notifier: notifier,
		db:       db,
		keyID:    keyID,
	}
}

type OrderView struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency domain.Currency
	Receipt  string
	Status   domain.PaymentOrderStatus
	KeyID    string
}

// CreateOrder registers a top-up order with the external gateway and
// tracks it locally as CREATED until the confirmation webhook settles it.
func (s *PaymentService) CreateOrder(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*OrderView, error) {
	log := logging.FromContext(ctx)

	if !amount.IsPositive() {
		return nil, fmt.Errorf("CreateOrder: %w", domain.ErrInvalidAmount)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	receipt := fmt.Sprintf("receipt_%s_%d", user.ID, time.Now().UnixMilli())
	amountMinor := amount.Shift(2).IntPart()

	orderID, err := s.gateway.CreateOrder(ctx, amountMinor, domain.CurrencyINR, receipt)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: gateway: %w", err)
	}

	order := &domain.PaymentOrder{
		ID:        uuid.New(),
		OrderID:   orderID,
		UserID:    user.ID,
		Amount:    amount,
		Currency:  domain.CurrencyINR,
		Receipt:   receipt,
		Status:    domain.PaymentOrderStatusCreated,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	log.Info("payment order created", "order_id", orderID, "user_id", user.ID, "amount", amount)

	return &OrderView{
		OrderID:  orderID,
		Amount:   amount,
		Currency: domain.CurrencyINR,
		Receipt:  receipt,
		Status:   order.Status,
		KeyID:    s.keyID,
	}, nil
}

// HandlePaymentSuccess settles one gateway payment confirmation. Delivery
// is at-least-once: the order row is locked, and if its payment id is
// already set the event is a duplicate and the whole call is a no-op.
// Otherwise marking the order paid, crediting the wallet and appending the
// CREDIT entry all commit as one unit.
func (s *PaymentService) HandlePaymentSuccess(ctx context.Context, orderID, paymentID string, amountMinor int64) error {
	log := logging.FromContext(ctx)

	credited, err := s.settle(ctx, orderID, paymentID, amountMinor)
	metrics.PaymentEventsTotal.WithLabelValues(paymentOutcome(credited, err)).Inc()
	if err != nil {
		return fmt.Errorf("HandlePaymentSuccess: %w", err)
	}

	log.Info("payment event processed", "order_id", orderID, "payment_id", paymentID, "credited", credited)
	return nil
}

func (s *PaymentService) settle(ctx context.Context, orderID, paymentID string, amountMinor int64) (bool, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("settle: begin tx: %w", err)
	}
	defer tx.Rollback()

	order, err := s.orders.GetByOrderIDForUpdate(ctx, tx, orderID)
	if err != nil {
		// An event for an order this system never created. Surfaced to the
		// gateway as a processing failure; it will not become an order later.
		return false, fmt.Errorf("settle: %w", err)
	}

	if order.PaymentID != nil {
		log.Warn("duplicate payment event, skipping",
			"order_id", orderID,
			"payment_id", paymentID,
			"recorded_payment_id", *order.PaymentID,
		)
		return false, nil
	}

	// Minor units to rupees by scale shift only. No floats touch money.
	amount := decimal.New(amountMinor, -2)

	user, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		return false, fmt.Errorf("settle: %w", err)
	}

	wallet, err := s.wallets.GetByUserID(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("settle: %w", err)
	}
	wallet, err = s.wallets.GetForUpdate(ctx, tx, wallet.ID)
	if err != nil {
		return false, fmt.Errorf("settle: %w", err)
	}

	now := time.Now().UTC()
	if err := s.orders.MarkPaid(ctx, tx, order.ID, paymentID, now); err != nil {
		return false, fmt.Errorf("settle: %w", err)
	}

	newBalance, err := creditWallet(ctx, tx, s.wallets, wallet, amount)
	if err != nil {
		return false, fmt.Errorf("settle: %w", err)
	}

	txn := domain.NewCredit(wallet.ID, amount, "Gateway payment: "+paymentID)
	if err := s.ledger.Create(ctx, tx, txn); err != nil {
		return false, fmt.Errorf("settle: record credit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("settle: commit: %w", err)
	}

	log.Info("wallet credited",
		"user_id", user.ID,
		"amount", amount,
		"new_balance", newBalance,
		"txn_ref", txn.TxnRef,
	)

	if err := s.notifier.Notify(ctx, domain.Notification{
		UserEmail:  user.Email,
		Kind:       domain.NotificationWalletCredited,
		Amount:     amount,
		NewBalance: newBalance,
	}); err != nil {
		metrics.NotificationFailures.Inc()
		log.Error("failed to notify user of credit", "user_id", user.ID, "error", err)
	}

	return true, nil
}

func paymentOutcome(credited bool, err error) string {
	switch {
	case err == nil && credited:
		return metrics.OutcomeSuccess
	case err == nil:
		return metrics.OutcomeDuplicate
	case errors.Is(err, domain.ErrOrderNotFound):
		return metrics.OutcomeOrderNotFound
	default:
		return metrics.OutcomeError
	}
}
