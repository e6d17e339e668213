// Package payments wraps the payment gateway's intent lifecycle.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v84"
)

// ErrGateway marks failures that originate at the payment gateway rather
// than in our own code, so callers can map them to an upstream error class.
var ErrGateway = errors.New("payment gateway error")

// IntentStatus is the gateway outcome as seen by the checkout flow.
type IntentStatus string

const (
	// IntentSucceeded means the charge settled immediately on attach.
	IntentSucceeded IntentStatus = "succeeded"
	// IntentAwaitingRedirect means the payer must complete an off-site
	// authentication step at RedirectURL before the intent can settle.
	IntentAwaitingRedirect IntentStatus = "awaiting_redirect"
	// IntentPending means the intent exists but has not been confirmed yet.
	IntentPending IntentStatus = "pending"
	// IntentFailed covers every other terminal or unexpected state.
	IntentFailed IntentStatus = "failed"
)

type Intent struct {
	ID          string
	AmountCents int64
	Status      IntentStatus
	RedirectURL string
}

type CardDetails struct {
	Number   string
	ExpMonth int64
	ExpYear  int64
	CVC      string
}

// Gateway is the surface the checkout service depends on. The production
// implementation is Client; tests substitute a fake.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, description string) (*Intent, error)
	CreateCardMethod(ctx context.Context, card CardDetails) (string, error)
	CreateEWalletMethod(ctx context.Context, kind string) (string, error)
	Attach(ctx context.Context, intentID, methodID, returnURL string) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
}

type Client struct {
	client   *stripe.Client
	currency string
}

func NewClient(secretKey, currency string) *Client {
	return &Client{
		client:   stripe.NewClient(secretKey),
		currency: currency,
	}
}

// CreateIntent registers the amount to be charged before a payment method is
// chosen. The amount is the quote total: merchandise subtotal plus shipping.
func (c *Client) CreateIntent(ctx context.Context, amountCents int64, description string) (*Intent, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(c.currency),
		Description:        stripe.String(description),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}

	intent, err := c.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create payment intent: %w", ErrGateway, err)
	}

	return fromStripeIntent(intent), nil
}

// CreateCardMethod registers a card as a payment method and returns its ID.
func (c *Client) CreateCardMethod(ctx context.Context, card CardDetails) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("context is required")
	}

	params := &stripe.PaymentMethodCreateParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCreateCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(card.ExpMonth),
			ExpYear:  stripe.Int64(card.ExpYear),
			CVC:      stripe.String(card.CVC),
		},
	}

	method, err := c.client.V1PaymentMethods.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create payment method: %w", ErrGateway, err)
	}

	return method.ID, nil
}

// CreateEWalletMethod registers an e-wallet payment method (gcash, grab_pay)
// and returns its ID.
func (c *Client) CreateEWalletMethod(ctx context.Context, kind string) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("context is required")
	}

	params := &stripe.PaymentMethodCreateParams{
		Type: stripe.String(kind),
	}

	method, err := c.client.V1PaymentMethods.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create payment method: %w", ErrGateway, err)
	}

	return method.ID, nil
}

// Attach binds the payment method to the intent and confirms it. The gateway
// either settles immediately or demands an off-site redirect.
func (c *Client) Attach(ctx context.Context, intentID, methodID, returnURL string) (*Intent, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(methodID),
		ReturnURL:     stripe.String(returnURL),
	}

	intent, err := c.client.V1PaymentIntents.Confirm(ctx, intentID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to attach payment method: %w", ErrGateway, err)
	}

	return fromStripeIntent(intent), nil
}

// GetIntent re-fetches the intent. Used to confirm a terminal status after
// the client reports the redirect outcome, since the redirect target is not
// a signed callback.
func (c *Client) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	intent, err := c.client.V1PaymentIntents.Retrieve(ctx, intentID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get payment intent: %w", ErrGateway, err)
	}

	return fromStripeIntent(intent), nil
}

func fromStripeIntent(intent *stripe.PaymentIntent) *Intent {
	result := &Intent{
		ID:          intent.ID,
		AmountCents: intent.Amount,
	}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		result.Status = IntentSucceeded
	case stripe.PaymentIntentStatusRequiresAction:
		result.Status = IntentAwaitingRedirect
		if intent.NextAction != nil && intent.NextAction.RedirectToURL != nil {
			result.RedirectURL = intent.NextAction.RedirectToURL.URL
		}
	case stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusProcessing:
		result.Status = IntentPending
	default:
		result.Status = IntentFailed
	}

	return result
}
