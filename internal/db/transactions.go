package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionStore is read-only: transactions are only written alongside
// their order in OrderStore.CreateWithTransaction.
type TransactionStore struct {
	pool *pgxpool.Pool
}

func NewTransactionStore(pool *pgxpool.Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

const transactionColumns = `id, order_id, user_id, transaction_number, merchandise_cents,
	shipping_cents, total_amount_cents, payment_method, status, created_at`

func (s *TransactionStore) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1
	`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	return txn, err
}

func (s *TransactionStore) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Transaction, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE order_id = $1
	`, orderID)
	txn, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	return txn, err
}

func (s *TransactionStore) List(ctx context.Context, limit int) ([]*Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var (
		txn    Transaction
		status string
	)
	err := row.Scan(&txn.ID, &txn.OrderID, &txn.UserID, &txn.TransactionNumber,
		&txn.MerchandiseCents, &txn.ShippingCents, &txn.TotalAmountCents,
		&txn.PaymentMethod, &status, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}
	txn.Status = TransactionStatus(status)
	return &txn, nil
}

func scanTransactions(rows pgx.Rows) ([]*Transaction, error) {
	var txns []*Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
