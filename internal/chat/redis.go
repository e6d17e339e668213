package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tapcardapp/tapcard/internal/models"
)

// RedisBroker fans messages out over redis pub/sub so every API instance
// sees sends from every other instance.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(connectionString string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis connection string: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBroker{client: client}, nil
}

func (r *RedisBroker) Publish(ctx context.Context, msg *models.Message) error {
	payload, err := encodeMessage(msg)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, pairChannel(msg.SenderID, msg.ReceiverID), payload).Err()
}

func (r *RedisBroker) Subscribe(ctx context.Context, a, b uuid.UUID) (<-chan *models.Message, func(), error) {
	pubsub := r.client.Subscribe(ctx, pairChannel(a, b))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan *models.Message, 16)
	go func() {
		defer close(out)
		for raw := range pubsub.Channel() {
			msg, err := decodeMessage(raw.Payload)
			if err != nil {
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}

func (r *RedisBroker) Close() error {
	return r.client.Close()
}
