package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/models"
)

func TestMemoryBroker_PublishReachesBothDirections(t *testing.T) {
	t.Parallel()

	broker := NewMemoryBroker()
	defer func() { _ = broker.Close() }()

	customer := uuid.New()
	admin := uuid.New()
	ctx := context.Background()

	// Subscribed with the pair in the opposite order from the publish.
	received, cancel, err := broker.Subscribe(ctx, admin, customer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cancel()

	msg := &models.Message{ID: uuid.New(), SenderID: customer, ReceiverID: admin, Body: "hello"}
	if err := broker.Publish(ctx, msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case got := <-received:
		if got.Body != "hello" || got.SenderID != customer {
			t.Errorf("unexpected message: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestMemoryBroker_CancelStopsDelivery(t *testing.T) {
	t.Parallel()

	broker := NewMemoryBroker()
	defer func() { _ = broker.Close() }()

	a, b := uuid.New(), uuid.New()
	ctx := context.Background()

	received, cancel, err := broker.Subscribe(ctx, a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancel()
	cancel() // idempotent

	if _, open := <-received; open {
		t.Error("expected channel closed after cancel")
	}

	// Publishing after cancel must not panic or block.
	if err := broker.Publish(ctx, &models.Message{SenderID: a, ReceiverID: b, Body: "late"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMemoryBroker_OtherPairsDoNotReceive(t *testing.T) {
	t.Parallel()

	broker := NewMemoryBroker()
	defer func() { _ = broker.Close() }()

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	ctx := context.Background()

	received, cancel, err := broker.Subscribe(ctx, a, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cancel()

	if err := broker.Publish(ctx, &models.Message{SenderID: a, ReceiverID: b, Body: "not for a:c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case got := <-received:
		t.Errorf("unexpected message delivered to wrong pair: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBroker_SubscribeAfterCloseFails(t *testing.T) {
	t.Parallel()

	broker := NewMemoryBroker()
	if err := broker.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := broker.Subscribe(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrBrokerClosed) {
		t.Errorf("Subscribe after Close error = %v, want %v", err, ErrBrokerClosed)
	}

	if len(broker.subscribers) != 0 {
		t.Error("expected no subscriber channels after close")
	}
}

func TestPairChannel_OrderIndependent(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	if pairChannel(a, b) != pairChannel(b, a) {
		t.Error("expected pair channel to be order independent")
	}
}
