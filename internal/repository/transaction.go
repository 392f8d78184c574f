package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tundesanni/paylite/internal/domain"
)

const transactionColumns = `id, txn_ref, sender_wallet_id, receiver_wallet_id,
	amount, type, status, description, created_at`

// TransactionRepository is append-only: entries are inserted inside the
// mutating transaction and never updated or deleted.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, txn *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, txn_ref, sender_wallet_id, receiver_wallet_id,
			amount, type, status, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		txn.ID, txn.TxnRef, txn.SenderWalletID, txn.ReceiverWalletID,
		txn.Amount, txn.Type, txn.Status, txn.Description, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetByWalletID returns entries where the wallet is sender or receiver,
// newest first, plus the total count for pagination.
func (r *TransactionRepository) GetByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions
		WHERE sender_wallet_id = $1 OR receiver_wallet_id = $1`, walletID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByWalletID: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE sender_wallet_id = $1 OR receiver_wallet_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		walletID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByWalletID: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("GetByWalletID: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("GetByWalletID: rows: %w", err)
	}
	return txns, total, nil
}

func (r *TransactionRepository) GetByRef(ctx context.Context, txnRef string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE txn_ref = $1`, txnRef,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByRef: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByRef: %w", err)
	}
	return t, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var sender, receiver uuid.NullUUID
	err := s.Scan(
		&t.ID, &t.TxnRef, &sender, &receiver,
		&t.Amount, &t.Type, &t.Status, &t.Description, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sender.Valid {
		t.SenderWalletID = &sender.UUID
	}
	if receiver.Valid {
		t.ReceiverWalletID = &receiver.UUID
	}
	return &t, nil
}
