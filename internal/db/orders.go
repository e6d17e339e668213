package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrOrderNotFound           = errors.New("order not found")
)

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `id, user_id, design_id, material, quantity, unit_price_cents,
	subtotal_cents, shipping_cents, total_cents, front_image_url, back_image_url,
	shipping_method, delivery_address, payment_intent_id, status, created_at, updated_at`

// CreateWithTransaction persists an order and its transaction atomically,
// keyed by the payment intent identifier. Calling it again with the same
// intent ID returns the previously persisted pair, so a retried checkout
// completion can never leave an orphaned order or double-charge record.
func (s *OrderStore) CreateWithTransaction(ctx context.Context, order *Order, txn *Transaction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := s.getByPaymentIntentIDTx(ctx, tx, order.PaymentIntentID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if err == nil {
		existingTxn, txnErr := s.getTransactionByOrderIDTx(ctx, tx, existing.ID)
		if txnErr != nil {
			return txnErr
		}
		*order = *existing
		*txn = *existingTxn
		return tx.Commit(ctx)
	}

	addressJSON, err := json.Marshal(order.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("failed to encode delivery address: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, design_id, material, quantity, unit_price_cents,
			subtotal_cents, shipping_cents, total_cents, front_image_url, back_image_url,
			shipping_method, delivery_address, payment_intent_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`, order.UserID, order.DesignID, order.Material, order.Quantity, order.UnitPriceCents,
		order.SubtotalCents, order.ShippingCents, order.TotalCents,
		textOrNull(order.FrontImageURL), textOrNull(order.BackImageURL),
		order.ShippingMethod, addressJSON, order.PaymentIntentID, string(order.Status))
	if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	txn.OrderID = order.ID
	txn.UserID = order.UserID
	txnRow := tx.QueryRow(ctx, `
		INSERT INTO transactions (order_id, user_id, transaction_number,
			merchandise_cents, shipping_cents, total_amount_cents, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, txn.OrderID, txn.UserID, txn.TransactionNumber,
		txn.MerchandiseCents, txn.ShippingCents, txn.TotalAmountCents,
		txn.PaymentMethod, string(txn.Status))
	if err := txnRow.Scan(&txn.ID, &txn.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *OrderStore) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1 AND deleted_at IS NULL
	`, orderID)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *OrderStore) GetByPaymentIntentID(ctx context.Context, intentID string) (*Order, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE payment_intent_id = $1 AND deleted_at IS NULL
	`, intentID)
	order, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *OrderStore) List(ctx context.Context, limit int) ([]*Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (s *OrderStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// UpdateStatus advances an order along Pending -> Shipped -> Delivered.
// The predecessor status is enforced in the WHERE clause so a concurrent
// update cannot skip or rewind a step.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID uuid.UUID, status OrderStatus) error {
	var predecessor OrderStatus
	switch status {
	case StatusShipped:
		predecessor = StatusPending
	case StatusDelivered:
		predecessor = StatusShipped
	default:
		return fmt.Errorf("%w: cannot transition to %s", ErrInvalidStatusTransition, status)
	}

	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND deleted_at IS NULL
	`, string(status), orderID, string(predecessor))
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected %s", ErrInvalidStatusTransition, predecessor)
	}
	return nil
}

func (s *OrderStore) SoftDelete(ctx context.Context, orderID uuid.UUID) error {
	cmdTag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *OrderStore) getByPaymentIntentIDTx(ctx context.Context, tx pgx.Tx, intentID string) (*Order, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE payment_intent_id = $1
	`, intentID)
	return scanOrder(row)
}

func (s *OrderStore) getTransactionByOrderIDTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*Transaction, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, order_id, user_id, transaction_number, merchandise_cents,
			shipping_cents, total_amount_cents, payment_method, status, created_at
		FROM transactions
		WHERE order_id = $1
	`, orderID)
	return scanTransaction(row)
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		order       Order
		frontImage  pgtype.Text
		backImage   pgtype.Text
		addressJSON []byte
		status      string
	)
	err := row.Scan(&order.ID, &order.UserID, &order.DesignID, &order.Material,
		&order.Quantity, &order.UnitPriceCents, &order.SubtotalCents,
		&order.ShippingCents, &order.TotalCents, &frontImage, &backImage,
		&order.ShippingMethod, &addressJSON, &order.PaymentIntentID,
		&status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	order.Status = OrderStatus(status)
	if frontImage.Valid {
		order.FrontImageURL = frontImage.String
	}
	if backImage.Valid {
		order.BackImageURL = backImage.String
	}
	if addressJSON != nil {
		if err := json.Unmarshal(addressJSON, &order.DeliveryAddress); err != nil {
			return nil, fmt.Errorf("failed to decode delivery address: %w", err)
		}
	}
	return &order, nil
}

func scanOrders(rows pgx.Rows) ([]*Order, error) {
	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func textOrNull(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}
