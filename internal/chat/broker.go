// Package chat provides the message fan-out broker behind the chat stream.
// Persistence is the source of truth; the broker only lowers perceived
// latency, so delivery is best-effort with no acknowledgement or retry.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/models"
)

// ErrBrokerClosed is returned by Subscribe once Close has run.
var ErrBrokerClosed = errors.New("chat broker is closed")

type Broker interface {
	// Publish fans the persisted message out to live subscribers.
	Publish(ctx context.Context, msg *models.Message) error
	// Subscribe returns a channel of messages for the participant pair and a
	// cancel function that releases the subscription.
	Subscribe(ctx context.Context, a, b uuid.UUID) (<-chan *models.Message, func(), error)
	Close() error
}

type Config struct {
	Broker                string
	RedisConnectionString string
}

func NewBroker(cfg Config) (Broker, error) {
	switch cfg.Broker {
	case "memory", "":
		return NewMemoryBroker(), nil
	case "redis":
		return NewRedisBroker(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported chat broker: %s", cfg.Broker)
	}
}

// pairChannel names the pub/sub channel for a participant pair. The IDs are
// sorted so both sides subscribe to the same channel.
func pairChannel(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return "chat:" + ids[0] + ":" + ids[1]
}

func encodeMessage(msg *models.Message) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to encode chat message: %w", err)
	}
	return string(payload), nil
}

func decodeMessage(payload string) (*models.Message, error) {
	var msg models.Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return nil, fmt.Errorf("failed to decode chat message: %w", err)
	}
	return &msg, nil
}
