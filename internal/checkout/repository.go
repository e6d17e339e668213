package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/cache"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// Session drafts idle out after a day; the summary survives a week so the
// success screen can still render after an app restart.
const (
	sessionTTL = 24 * time.Hour
	summaryTTL = 7 * 24 * time.Hour
)

// Repository persists checkout sessions in the cache provider. Updates go
// through a mutex-guarded read-modify-write so concurrent requests for the
// same user cannot interleave partial session writes.
type Repository struct {
	store cache.Provider

	mu sync.Mutex
}

func NewRepository(store cache.Provider) *Repository {
	return &Repository{store: store}
}

// Get returns the user's current session, or ErrSessionNotFound.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*Session, error) {
	raw, err := r.store.Get(ctx, cache.CheckoutSessionKey(userID.String()))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	return &session, nil
}

// Update applies fn to the user's session under the repository lock. A
// missing session is passed to fn as a fresh Idle draft, so the first field
// write creates it.
func (r *Repository) Update(ctx context.Context, userID uuid.UUID, fn func(*Session) error) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, err := r.Get(ctx, userID)
	if errors.Is(err, ErrSessionNotFound) {
		session = &Session{UserID: userID, State: StateIdle}
	} else if err != nil {
		return nil, err
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	session.UserID = userID
	session.UpdatedAt = time.Now().UTC()

	encoded, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkout session: %w", err)
	}
	if err := r.store.Set(ctx, cache.CheckoutSessionKey(userID.String()), string(encoded), sessionTTL); err != nil {
		return nil, err
	}
	return session, nil
}

// Clear removes the user's session draft. Called when a checkout reaches Done.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.store.Delete(ctx, cache.CheckoutSessionKey(userID.String()))
}

// SaveSummary stores the post-checkout summary independently of the session draft.
func (r *Repository) SaveSummary(ctx context.Context, userID uuid.UUID, summary *Summary) error {
	encoded, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode order summary: %w", err)
	}
	return r.store.Set(ctx, cache.OrderSummaryKey(userID.String()), string(encoded), summaryTTL)
}

// GetSummary returns the retained order summary, or ErrSessionNotFound.
func (r *Repository) GetSummary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	raw, err := r.store.Get(ctx, cache.OrderSummaryKey(userID.String()))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var summary Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode order summary: %w", err)
	}
	return &summary, nil
}

// ClearSummary removes the summary once the customer navigates away.
func (r *Repository) ClearSummary(ctx context.Context, userID uuid.UUID) error {
	return r.store.Delete(ctx, cache.OrderSummaryKey(userID.String()))
}
