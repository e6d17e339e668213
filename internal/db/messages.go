package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func (s *MessageStore) Create(ctx context.Context, msg *Message) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, body, is_image, from_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, msg.SenderID, msg.ReceiverID, msg.Body, msg.IsImage, msg.FromAdmin)
	return row.Scan(&msg.ID, &msg.CreatedAt)
}

// History returns every message exchanged between the two participants in
// insertion order. This is the chat read path; the stream only lowers latency.
func (s *MessageStore) History(ctx context.Context, a, b uuid.UUID) ([]*Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, body, is_image, from_admin, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
	`, a, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func scanMessage(row pgx.Row) (*Message, error) {
	var msg Message
	err := row.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Body,
		&msg.IsImage, &msg.FromAdmin, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
