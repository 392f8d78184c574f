package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tundesanni/paylite/internal/domain"
)

const orderColumns = `id, order_id, payment_id, user_id, amount, currency,
	receipt, status, created_at, paid_at`

type PaymentOrderRepository struct {
	db *sql.DB
}

func NewPaymentOrderRepository(db *sql.DB) *PaymentOrderRepository {
	return &PaymentOrderRepository{db: db}
}

func (r *PaymentOrderRepository) Create(ctx context.Context, order *domain.PaymentOrder) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_orders (
			id, order_id, payment_id, user_id, amount, currency,
			receipt, status, created_at, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		order.ID, order.OrderID, order.PaymentID, order.UserID, order.Amount,
		order.Currency, order.Receipt, order.Status, order.CreatedAt, order.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PaymentOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentOrder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM payment_orders WHERE order_id = $1`, orderID,
	)
	o, err := scanPaymentOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByOrderID: %w", domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("GetByOrderID: %w", err)
	}
	return o, nil
}

// GetByOrderIDForUpdate locks the order row so the idempotency check and
// the payment-id set happen as one atomic check-and-act. Two concurrent
// deliveries of the same payment serialize here.
func (r *PaymentOrderRepository) GetByOrderIDForUpdate(ctx context.Context, tx *sql.Tx, orderID string) (*domain.PaymentOrder, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM payment_orders WHERE order_id = $1 FOR UPDATE`, orderID,
	)
	o, err := scanPaymentOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByOrderIDForUpdate: %w", domain.ErrOrderNotFound)
		}
		return nil, fmt.Errorf("GetByOrderIDForUpdate: %w", err)
	}
	return o, nil
}

// MarkPaid sets the payment id exactly once. The payment_id IS NULL guard
// backs up the caller's locked check; a zero row count means the marker was
// already set.
func (r *PaymentOrderRepository) MarkPaid(ctx context.Context, tx *sql.Tx, id uuid.UUID, paymentID string, paidAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE payment_orders SET payment_id = $1, status = $2, paid_at = $3
		WHERE id = $4 AND payment_id IS NULL`,
		paymentID, domain.PaymentOrderStatusPaid, paidAt, id,
	)
	if err != nil {
		return fmt.Errorf("MarkPaid: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkPaid: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("MarkPaid: payment id already set: %w", domain.ErrNotFound)
	}
	return nil
}

func scanPaymentOrder(s scanner) (*domain.PaymentOrder, error) {
	var o domain.PaymentOrder
	err := s.Scan(
		&o.ID, &o.OrderID, &o.PaymentID, &o.UserID, &o.Amount,
		&o.Currency, &o.Receipt, &o.Status, &o.CreatedAt, &o.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
