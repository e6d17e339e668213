package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/chat"
	"github.com/tapcardapp/tapcard/internal/logging"
	"github.com/tapcardapp/tapcard/internal/models"
	"github.com/tapcardapp/tapcard/internal/observability"
)

type messageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	History(ctx context.Context, a, b uuid.UUID) ([]*models.Message, error)
}

// ChatService relays support messages between customers and the admin
// identity. Every message is persisted first and only then published to live
// subscribers; the history endpoint is the source of truth, the live stream
// is best-effort.
type ChatService struct {
	messages messageStore
	broker   chat.Broker
	logger   *slog.Logger
}

func NewChatService(messages messageStore, broker chat.Broker, logger *slog.Logger) *ChatService {
	return &ChatService{
		messages: messages,
		broker:   broker,
		logger:   logger,
	}
}

type SendMessageInput struct {
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Body       string
	IsImage    bool
	FromAdmin  bool
}

// Send persists the message, then fans it out to live subscribers. A publish
// failure is logged, never returned: the message is already durable and the
// receiver picks it up from history.
func (s *ChatService) Send(ctx context.Context, input SendMessageInput) (*models.Message, error) {
	span := sentry.StartSpan(
		ctx,
		"service.chat.send",
		sentry.WithOpName("service.chat"),
		sentry.WithDescription("Send"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)

	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, fmt.Errorf("message body is required")
	}
	if input.SenderID == input.ReceiverID {
		return nil, fmt.Errorf("sender and receiver must differ")
	}

	msg := &models.Message{
		SenderID:   input.SenderID,
		ReceiverID: input.ReceiverID,
		Body:       body,
		IsImage:    input.IsImage,
		FromAdmin:  input.FromAdmin,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		meter.Count("chat.send.failed", 1, sentry.WithAttributes(
			attribute.String("reason", "persist_failed"),
		))
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	if err := s.broker.Publish(ctx, msg); err != nil {
		meter.Count("chat.publish.failed", 1)
		logging.FromContext(ctx, s.logger).Warn("failed to publish chat message", "error", err, "message_id", msg.ID)
	}

	meter.Count("chat.send.succeeded", 1)
	return msg, nil
}

// History returns the full conversation between two participants, oldest
// first.
func (s *ChatService) History(ctx context.Context, a, b uuid.UUID) ([]*models.Message, error) {
	return s.messages.History(ctx, a, b)
}

// Stream subscribes to live messages for the participant pair.
func (s *ChatService) Stream(ctx context.Context, a, b uuid.UUID) (<-chan *models.Message, func(), error) {
	return s.broker.Subscribe(ctx, a, b)
}
