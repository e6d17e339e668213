package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/cache"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	store, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("failed to create memory provider: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewRepository(store)
}

func TestRepository_UpdateCreatesIdleSession(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	userID := uuid.New()

	session, err := repo.Update(context.Background(), userID, func(s *Session) error {
		if s.State != StateIdle {
			t.Errorf("expected fresh session in Idle, got %s", s.State)
		}
		s.Material = "PVC"
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Material != "PVC" {
		t.Errorf("expected material to persist, got %q", session.Material)
	}

	loaded, err := repo.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.Material != "PVC" || loaded.UserID != userID {
		t.Errorf("unexpected session after reload: %+v", loaded)
	}
}

func TestRepository_UpdateMergesFieldByField(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	userID := uuid.New()
	ctx := context.Background()

	steps := []func(*Session) error{
		func(s *Session) error { s.Material = "Metal"; return nil },
		func(s *Session) error { s.Quantity = 2; return nil },
		func(s *Session) error { s.ShippingMethod = "standard"; return nil },
	}
	for _, step := range steps {
		if _, err := repo.Update(ctx, userID, step); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	session, err := repo.Get(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Material != "Metal" || session.Quantity != 2 || session.ShippingMethod != "standard" {
		t.Errorf("fields lost across updates: %+v", session)
	}
}

func TestRepository_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	userID := uuid.New()
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, _ = repo.Update(ctx, userID, func(s *Session) error {
				s.Quantity++
				return nil
			})
		}()
	}
	wg.Wait()

	session, err := repo.Get(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Quantity != writers {
		t.Errorf("expected %d increments, got %d", writers, session.Quantity)
	}
}

func TestRepository_ClearAndSummaryLifecycle(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := repo.Update(ctx, userID, func(s *Session) error { s.Material = "Wood"; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary := &Summary{OrderID: uuid.New(), TransactionNumber: "TXN-1", TotalAmountCents: 35800}
	if err := repo.SaveSummary(ctx, userID, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.Clear(ctx, userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.Get(ctx, userID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after clear, got %v", err)
	}

	// Summary survives the cleared draft until explicitly dismissed.
	loaded, err := repo.GetSummary(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.TransactionNumber != "TXN-1" {
		t.Errorf("unexpected summary: %+v", loaded)
	}

	if err := repo.ClearSummary(ctx, userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.GetSummary(ctx, userID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after dismiss, got %v", err)
	}
}

func TestSession_MissingFields(t *testing.T) {
	t.Parallel()

	session := &Session{}
	missing := session.MissingFields()
	if len(missing) != 5 {
		t.Fatalf("expected 5 missing fields on empty session, got %v", missing)
	}

	session = &Session{
		DesignID:        uuid.New(),
		Material:        "PVC",
		Quantity:        1,
		ShippingMethod:  "standard",
		DeliveryAddress: map[string]any{"line1": "123 Rizal St"},
	}
	if missing := session.MissingFields(); len(missing) != 0 {
		t.Errorf("expected no missing fields, got %v", missing)
	}
}
