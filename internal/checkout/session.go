// Package checkout holds the server-side checkout session: the typed
// replacement for the draft the mobile client used to accumulate across
// screens and merge into device storage.
package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/catalog"
)

// State names a step of the checkout flow. Failed is reachable from any step.
type State string

const (
	StateIdle             State = "idle"
	StateIntentCreated    State = "intent_created"
	StateMethodCreated    State = "method_created"
	StateMethodAttached   State = "method_attached"
	StateAwaitingRedirect State = "awaiting_redirect"
	StateRedirectPolling  State = "redirect_polling"
	StateUploading        State = "uploading"
	StatePersisting       State = "persisting"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// Session accumulates checkout attributes as the customer moves through the
// shipping, payment and review steps, then tracks the payment flow itself.
type Session struct {
	UserID   uuid.UUID `json:"user_id"`
	DesignID uuid.UUID `json:"design_id"`

	Material        string         `json:"material"`
	Quantity        int            `json:"quantity"`
	ShippingMethod  string         `json:"shipping_method"`
	DeliveryAddress map[string]any `json:"delivery_address"`
	PaymentMethod   string         `json:"payment_method"`

	// Captured card faces awaiting CDN upload, base64 data URIs.
	FrontImage string `json:"front_image,omitempty"`
	BackImage  string `json:"back_image,omitempty"`

	// Uploaded card face URLs, set during the Uploading step.
	FrontImageURL string `json:"front_image_url,omitempty"`
	BackImageURL  string `json:"back_image_url,omitempty"`

	Quote *catalog.Quote `json:"quote,omitempty"`

	State         State  `json:"state"`
	IntentID      string `json:"intent_id,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// MissingFields lists the draft fields still required before a checkout can
// start. The client-side flow crashed on a missing nested field when a
// screen was skipped via deep link; here the gap becomes a validation error.
func (s *Session) MissingFields() []string {
	var missing []string
	if s.DesignID == uuid.Nil {
		missing = append(missing, "design_id")
	}
	if s.Material == "" {
		missing = append(missing, "material")
	}
	if s.Quantity <= 0 {
		missing = append(missing, "quantity")
	}
	if s.ShippingMethod == "" {
		missing = append(missing, "shipping_method")
	}
	if len(s.DeliveryAddress) == 0 {
		missing = append(missing, "delivery_address")
	}
	return missing
}

// Fail moves the session to Failed with a user-facing reason. Valid from any
// state; the customer re-enters from Idle on retry.
func (s *Session) Fail(reason string) {
	s.State = StateFailed
	s.FailureReason = reason
}

// Summary is what the success screen renders after a completed checkout. It
// outlives the session and is cleared only when the customer dismisses it.
type Summary struct {
	OrderID           uuid.UUID `json:"order_id"`
	TransactionID     uuid.UUID `json:"transaction_id"`
	TransactionNumber string    `json:"transaction_number"`
	MerchandiseCents  int       `json:"merchandise_subtotal_cents"`
	ShippingCents     int       `json:"shipping_subtotal_cents"`
	TotalAmountCents  int       `json:"total_amount_cents"`
	PaymentMethod     string    `json:"payment_method"`
	CreatedAt         time.Time `json:"created_at"`
}
