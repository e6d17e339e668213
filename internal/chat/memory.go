package chat

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/models"
)

// MemoryBroker is the in-process broker used in development and tests.
type MemoryBroker struct {
	mu          sync.Mutex
	subscribers map[string]map[chan *models.Message]struct{}
	closed      bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subscribers: make(map[string]map[chan *models.Message]struct{}),
	}
}

func (m *MemoryBroker) Publish(ctx context.Context, msg *models.Message) error {
	_ = ctx
	channel := pairChannel(msg.SenderID, msg.ReceiverID)

	m.mu.Lock()
	defer m.mu.Unlock()
	for subscriber := range m.subscribers[channel] {
		select {
		case subscriber <- msg:
		default:
			// Slow subscriber; drop rather than block the send path.
		}
	}
	return nil
}

func (m *MemoryBroker) Subscribe(ctx context.Context, a, b uuid.UUID) (<-chan *models.Message, func(), error) {
	_ = ctx
	channel := pairChannel(a, b)
	subscriber := make(chan *models.Message, 16)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, nil, ErrBrokerClosed
	}
	if m.subscribers[channel] == nil {
		m.subscribers[channel] = make(map[chan *models.Message]struct{})
	}
	m.subscribers[channel][subscriber] = struct{}{}
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subscribers[channel][subscriber]; !ok {
			return
		}
		delete(m.subscribers[channel], subscriber)
		close(subscriber)
	}
	return subscriber, cancel, nil
}

func (m *MemoryBroker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for channel, subscribers := range m.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(m.subscribers, channel)
	}
	return nil
}
