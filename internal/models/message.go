package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a single chat message between a customer and the admin identity.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Body       string    `json:"message"`
	IsImage    bool      `json:"is_image"`
	FromAdmin  bool      `json:"from_admin"`
	CreatedAt  time.Time `json:"created_at"`
}
