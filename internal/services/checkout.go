package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/catalog"
	"github.com/tapcardapp/tapcard/internal/checkout"
	"github.com/tapcardapp/tapcard/internal/db"
	"github.com/tapcardapp/tapcard/internal/email"
	"github.com/tapcardapp/tapcard/internal/logging"
	"github.com/tapcardapp/tapcard/internal/models"
	"github.com/tapcardapp/tapcard/internal/observability"
	"github.com/tapcardapp/tapcard/internal/payments"
)

var (
	ErrDraftIncomplete    = errors.New("checkout draft is incomplete")
	ErrWrongCheckoutState = errors.New("checkout is not in a valid state for this step")
	ErrPaymentNotSettled  = errors.New("payment has not settled")
	ErrUnknownMaterial    = errors.New("design does not offer this material")
)

type designGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.CardDesign, error)
}

type orderWriter interface {
	CreateWithTransaction(ctx context.Context, order *models.Order, txn *models.Transaction) error
}

type userGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type imageUploader interface {
	Upload(ctx context.Context, payload, publicID string) (string, error)
}

type quotePricer interface {
	QuoteOrder(config *catalog.StorefrontConfig, unitPriceCents, quantity int, shippingMethod string) (*catalog.Quote, error)
}

// CheckoutService drives a checkout attempt through its steps: draft intake,
// payment intent, payment method attach, optional redirect confirmation, and
// the final order write. Session state lives in the checkout repository so
// an interrupted client can resume or retry.
type CheckoutService struct {
	sessions  *checkout.Repository
	designs   designGetter
	orders    orderWriter
	users     userGetter
	gateway   payments.Gateway
	uploader  imageUploader
	catalog   *catalog.StorefrontConfig
	pricer    quotePricer
	email     email.Provider
	returnURL string
	logger    *slog.Logger
}

func NewCheckoutService(sessions *checkout.Repository, designs designGetter, orders orderWriter, users userGetter, gateway payments.Gateway, uploader imageUploader, storefront *catalog.StorefrontConfig, pricer quotePricer, emailProvider email.Provider, returnURL string, logger *slog.Logger) *CheckoutService {
	if emailProvider == nil {
		emailProvider = email.NoopProvider{}
	}

	return &CheckoutService{
		sessions:  sessions,
		designs:   designs,
		orders:    orders,
		users:     users,
		gateway:   gateway,
		uploader:  uploader,
		catalog:   storefront,
		pricer:    pricer,
		email:     emailProvider,
		returnURL: returnURL,
		logger:    logger,
	}
}

func (s *CheckoutService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// requireState re-validates the session step inside a locked update. The
// snapshot a request checked before its gateway call may be stale by the
// time the update runs; a concurrent request that already advanced the
// session must not be acted on twice.
func requireState(session *checkout.Session, states ...checkout.State) error {
	for _, state := range states {
		if session.State == state {
			return nil
		}
	}
	return fmt.Errorf("%w: state is %s", ErrWrongCheckoutState, session.State)
}

// DraftInput carries the fields a checkout screen submits. Nil or zero
// fields leave the stored value untouched, so screens can submit only what
// they own.
type DraftInput struct {
	DesignID        *uuid.UUID     `json:"design_id"`
	Material        *string        `json:"material"`
	Quantity        *int           `json:"quantity"`
	ShippingMethod  *string        `json:"shipping_method"`
	DeliveryAddress map[string]any `json:"delivery_address"`
	PaymentMethod   *string        `json:"payment_method"`
	FrontImage      *string        `json:"front_image"`
	BackImage       *string        `json:"back_image"`
}

// UpdateDraft merges the submitted fields into the user's checkout draft.
func (s *CheckoutService) UpdateDraft(ctx context.Context, userID uuid.UUID, input DraftInput) (*checkout.Session, error) {
	return s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
		if session.State != checkout.StateIdle && session.State != checkout.StateFailed {
			return fmt.Errorf("%w: draft is read-only after the payment intent exists", ErrWrongCheckoutState)
		}
		if session.State == checkout.StateFailed {
			// A retry starts over from the draft.
			*session = checkout.Session{
				UserID: userID,
				State:  checkout.StateIdle,
			}
		}

		if input.DesignID != nil {
			session.DesignID = *input.DesignID
		}
		if input.Material != nil {
			session.Material = *input.Material
		}
		if input.Quantity != nil {
			session.Quantity = *input.Quantity
		}
		if input.ShippingMethod != nil {
			session.ShippingMethod = *input.ShippingMethod
		}
		if input.DeliveryAddress != nil {
			session.DeliveryAddress = input.DeliveryAddress
		}
		if input.PaymentMethod != nil {
			session.PaymentMethod = *input.PaymentMethod
		}
		if input.FrontImage != nil {
			session.FrontImage = *input.FrontImage
		}
		if input.BackImage != nil {
			session.BackImage = *input.BackImage
		}
		return nil
	})
}

// StartCheckout validates the draft, prices it, and opens a payment intent
// for the quote total.
func (s *CheckoutService) StartCheckout(ctx context.Context, userID uuid.UUID) (*checkout.Session, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout.start",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("StartCheckout"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)
	recordFailure := func(reason string) {
		meter.Count("checkout.start.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}
	meter.Count("checkout.start.received", 1)

	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		recordFailure("draft_missing")
		return nil, err
	}
	if session.State != checkout.StateIdle {
		recordFailure("wrong_state")
		return nil, fmt.Errorf("%w: state is %s", ErrWrongCheckoutState, session.State)
	}
	if missing := session.MissingFields(); len(missing) > 0 {
		recordFailure("draft_incomplete")
		return nil, fmt.Errorf("%w: missing %s", ErrDraftIncomplete, strings.Join(missing, ", "))
	}

	design, err := s.designs.GetByID(ctx, session.DesignID)
	if err != nil {
		recordFailure("design_lookup_failed")
		return nil, fmt.Errorf("failed to get card design: %w", err)
	}
	unitPriceCents, ok := design.UnitPriceCents(session.Material)
	if !ok {
		recordFailure("unknown_material")
		return nil, fmt.Errorf("%w: %s", ErrUnknownMaterial, session.Material)
	}

	quote, err := s.pricer.QuoteOrder(s.catalog, unitPriceCents, session.Quantity, session.ShippingMethod)
	if err != nil {
		recordFailure("pricing_failed")
		return nil, fmt.Errorf("failed to price order: %w", err)
	}

	description := fmt.Sprintf("%s - %s x%d", design.Name, session.Material, session.Quantity)
	intent, err := s.gateway.CreateIntent(ctx, int64(quote.TotalCents), description)
	if err != nil {
		recordFailure("intent_create_failed")
		if _, failErr := s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
			if stateErr := requireState(session, checkout.StateIdle); stateErr != nil {
				return stateErr
			}
			session.Fail("could not start the payment")
			return nil
		}); failErr != nil {
			s.loggerFromContext(ctx).Warn("failed to mark checkout failed after intent error", "error", failErr, "user_id", userID)
		}
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	updated, err := s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
		if err := requireState(session, checkout.StateIdle); err != nil {
			return err
		}
		session.Quote = quote
		session.IntentID = intent.ID
		session.State = checkout.StateIntentCreated
		return nil
	})
	if err != nil {
		recordFailure("session_update_failed")
		return nil, err
	}

	meter.Count("checkout.intent.created", 1)
	s.loggerFromContext(ctx).Info("checkout started",
		"user_id", userID,
		"intent_id", intent.ID,
		"total_cents", quote.TotalCents)
	return updated, nil
}

// PaymentMethodInput selects how the customer pays. Kind is "card" or an
// e-wallet kind the gateway supports (gcash, grab_pay). Card details are
// required only for cards.
type PaymentMethodInput struct {
	Kind string
	Card *payments.CardDetails
}

// SubmitPaymentMethod creates the chosen payment method and attaches it to
// the open intent. The attach either settles immediately or hands back a
// redirect URL the client must open.
func (s *CheckoutService) SubmitPaymentMethod(ctx context.Context, userID uuid.UUID, input PaymentMethodInput) (*checkout.Session, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout.submit_payment_method",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("SubmitPaymentMethod"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)
	recordFailure := func(reason string) {
		meter.Count("checkout.attach.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		recordFailure("draft_missing")
		return nil, err
	}
	if session.State != checkout.StateIntentCreated {
		recordFailure("wrong_state")
		return nil, fmt.Errorf("%w: state is %s", ErrWrongCheckoutState, session.State)
	}

	var methodID string
	switch input.Kind {
	case "card":
		if input.Card == nil {
			recordFailure("card_details_missing")
			return nil, fmt.Errorf("card details are required")
		}
		methodID, err = s.gateway.CreateCardMethod(ctx, *input.Card)
	case "gcash", "grab_pay":
		methodID, err = s.gateway.CreateEWalletMethod(ctx, input.Kind)
	default:
		recordFailure("unsupported_method")
		return nil, fmt.Errorf("unsupported payment method: %s", input.Kind)
	}
	if err != nil {
		recordFailure("method_create_failed")
		return nil, fmt.Errorf("failed to create payment method: %w", err)
	}

	// Claiming IntentCreated -> MethodCreated under the lock is what keeps a
	// concurrent duplicate from attaching the same intent twice: the loser
	// fails here instead of reaching Attach.
	if _, err := s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
		if err := requireState(session, checkout.StateIntentCreated); err != nil {
			return err
		}
		session.PaymentMethod = input.Kind
		session.State = checkout.StateMethodCreated
		return nil
	}); err != nil {
		if errors.Is(err, ErrWrongCheckoutState) {
			recordFailure("wrong_state")
		} else {
			recordFailure("session_update_failed")
		}
		return nil, err
	}

	intent, err := s.gateway.Attach(ctx, session.IntentID, methodID, s.returnURL)
	if err != nil {
		recordFailure("attach_failed")
		updated, failErr := s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
			if stateErr := requireState(session, checkout.StateMethodCreated); stateErr != nil {
				return stateErr
			}
			session.Fail("the payment was declined")
			return nil
		})
		if failErr != nil {
			return nil, failErr
		}
		s.loggerFromContext(ctx).Warn("payment method attach failed", "error", err, "user_id", userID, "intent_id", session.IntentID)
		return updated, nil
	}

	updated, err := s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
		if err := requireState(session, checkout.StateMethodCreated); err != nil {
			return err
		}
		switch intent.Status {
		case payments.IntentSucceeded:
			session.State = checkout.StateMethodAttached
		case payments.IntentAwaitingRedirect:
			session.State = checkout.StateAwaitingRedirect
			session.RedirectURL = intent.RedirectURL
		default:
			session.Fail("the payment did not go through")
		}
		return nil
	})
	if err != nil {
		recordFailure("session_update_failed")
		return nil, err
	}

	switch updated.State {
	case checkout.StateMethodAttached:
		meter.Count("checkout.attach.succeeded", 1, sentry.WithAttributes(
			attribute.String("method", input.Kind),
		))
	case checkout.StateAwaitingRedirect:
		meter.Count("checkout.attach.redirect", 1, sentry.WithAttributes(
			attribute.String("method", input.Kind),
		))
	default:
		recordFailure("intent_" + string(intent.Status))
	}
	return updated, nil
}

// ConfirmRedirect handles the client's report of the embedded-browser
// outcome. The redirect target URL embeds "success" or "cancel"; that
// substring is the whole contract, so a success report is only trusted after
// the intent re-fetch shows a settled payment.
func (s *CheckoutService) ConfirmRedirect(ctx context.Context, userID uuid.UUID, result string) (*checkout.Session, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout.confirm_redirect",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("ConfirmRedirect"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)

	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session.State != checkout.StateAwaitingRedirect && session.State != checkout.StateRedirectPolling {
		return nil, fmt.Errorf("%w: state is %s", ErrWrongCheckoutState, session.State)
	}

	switch {
	case strings.Contains(result, "cancel"):
		meter.Count("checkout.redirect.cancelled", 1)
		return s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
			if err := requireState(session, checkout.StateAwaitingRedirect, checkout.StateRedirectPolling); err != nil {
				return err
			}
			session.Fail("payment was cancelled")
			return nil
		})
	case strings.Contains(result, "success"):
		// Fall through to the intent re-fetch below.
	default:
		return nil, fmt.Errorf("unrecognized redirect result: %q", result)
	}

	if _, err := s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
		if err := requireState(session, checkout.StateAwaitingRedirect, checkout.StateRedirectPolling); err != nil {
			return err
		}
		session.State = checkout.StateRedirectPolling
		return nil
	}); err != nil {
		return nil, err
	}

	intent, err := s.gateway.GetIntent(ctx, session.IntentID)
	if err != nil {
		meter.Count("checkout.redirect.poll_failed", 1)
		return nil, fmt.Errorf("failed to poll payment intent: %w", err)
	}

	return s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
		if err := requireState(session, checkout.StateRedirectPolling); err != nil {
			return err
		}
		switch intent.Status {
		case payments.IntentSucceeded:
			session.State = checkout.StateMethodAttached
			meter.Count("checkout.redirect.succeeded", 1)
		case payments.IntentAwaitingRedirect, payments.IntentPending:
			// The gateway has not settled yet; stay in polling so the
			// client can report again.
			session.State = checkout.StateRedirectPolling
		default:
			session.Fail("the payment did not go through")
			meter.Count("checkout.redirect.failed", 1)
		}
		return nil
	})
}

// Complete turns a settled payment into the order record: uploads the
// captured card faces, writes the order and its transaction in one database
// transaction keyed by the intent id, clears the draft, and retains a
// summary for the success screen. Safe to call again after a partial
// failure; the write is idempotent.
func (s *CheckoutService) Complete(ctx context.Context, userID uuid.UUID) (*checkout.Summary, error) {
	span := sentry.StartSpan(
		ctx,
		"service.checkout.complete",
		sentry.WithOpName("service.checkout"),
		sentry.WithDescription("Complete"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	recordFailure := func(reason string) {
		meter.Count("checkout.complete.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		recordFailure("draft_missing")
		return nil, err
	}
	switch session.State {
	case checkout.StateMethodAttached, checkout.StateRedirectPolling,
		checkout.StateUploading, checkout.StatePersisting:
	default:
		recordFailure("wrong_state")
		return nil, fmt.Errorf("%w: state is %s", ErrWrongCheckoutState, session.State)
	}

	intent, err := s.gateway.GetIntent(ctx, session.IntentID)
	if err != nil {
		recordFailure("intent_poll_failed")
		return nil, fmt.Errorf("failed to poll payment intent: %w", err)
	}
	if intent.Status != payments.IntentSucceeded {
		recordFailure("payment_not_settled")
		return nil, fmt.Errorf("%w: intent status is %s", ErrPaymentNotSettled, intent.Status)
	}

	if _, err = s.uploadCardFaces(ctx, userID, session); err != nil {
		recordFailure("upload_failed")
		return nil, err
	}

	// The snapshot the order is built from is taken inside the lock,
	// together with the Persisting transition, so a concurrent clear or
	// retry cannot slip between the check and the write.
	var snapshot checkout.Session
	if _, err := s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
		if err := requireState(session, checkout.StateMethodAttached, checkout.StateRedirectPolling,
			checkout.StateUploading, checkout.StatePersisting); err != nil {
			return err
		}
		session.State = checkout.StatePersisting
		snapshot = *session
		return nil
	}); err != nil {
		recordFailure("wrong_state")
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		DesignID:        snapshot.DesignID,
		Material:        snapshot.Material,
		Quantity:        snapshot.Quantity,
		UnitPriceCents:  snapshot.Quote.UnitPriceCents,
		SubtotalCents:   snapshot.Quote.SubtotalCents,
		ShippingCents:   snapshot.Quote.ShippingCents,
		TotalCents:      snapshot.Quote.TotalCents,
		FrontImageURL:   snapshot.FrontImageURL,
		BackImageURL:    snapshot.BackImageURL,
		ShippingMethod:  snapshot.ShippingMethod,
		DeliveryAddress: snapshot.DeliveryAddress,
		PaymentIntentID: snapshot.IntentID,
		Status:          models.StatusPending,
	}
	txn := &models.Transaction{
		TransactionNumber: newTransactionNumber(),
		MerchandiseCents:  snapshot.Quote.SubtotalCents,
		ShippingCents:     snapshot.Quote.ShippingCents,
		TotalAmountCents:  snapshot.Quote.TotalCents,
		PaymentMethod:     snapshot.PaymentMethod,
		Status:            models.TransactionCompleted,
	}
	if err := s.orders.CreateWithTransaction(ctx, order, txn); err != nil {
		recordFailure("order_write_failed")
		return nil, fmt.Errorf("failed to record order: %w", err)
	}
	meter.Count("order.created", 1, sentry.WithAttributes(
		attribute.String("payment_method", txn.PaymentMethod),
	))

	summary := &checkout.Summary{
		OrderID:           order.ID,
		TransactionID:     txn.ID,
		TransactionNumber: txn.TransactionNumber,
		MerchandiseCents:  txn.MerchandiseCents,
		ShippingCents:     txn.ShippingCents,
		TotalAmountCents:  txn.TotalAmountCents,
		PaymentMethod:     txn.PaymentMethod,
		CreatedAt:         txn.CreatedAt,
	}
	if err := s.sessions.SaveSummary(ctx, userID, summary); err != nil {
		logger.Warn("failed to retain order summary", "error", err, "user_id", userID, "order_id", order.ID)
	}
	if err := s.sessions.Clear(ctx, userID); err != nil {
		logger.Warn("failed to clear checkout draft", "error", err, "user_id", userID)
	}

	s.sendReceipt(ctx, order, txn)

	logger.Info("checkout completed",
		"user_id", userID,
		"order_id", order.ID,
		"transaction_number", txn.TransactionNumber,
		"total_cents", txn.TotalAmountCents)
	return summary, nil
}

// GetSummary returns the retained summary from the last completed checkout.
func (s *CheckoutService) GetSummary(ctx context.Context, userID uuid.UUID) (*checkout.Summary, error) {
	return s.sessions.GetSummary(ctx, userID)
}

// DismissSummary drops the retained summary once the success screen closes.
func (s *CheckoutService) DismissSummary(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.ClearSummary(ctx, userID)
}

// GetSession returns the user's current checkout session.
func (s *CheckoutService) GetSession(ctx context.Context, userID uuid.UUID) (*checkout.Session, error) {
	return s.sessions.Get(ctx, userID)
}

// ClearSession abandons the draft entirely.
func (s *CheckoutService) ClearSession(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.Clear(ctx, userID)
}

func (s *CheckoutService) uploadCardFaces(ctx context.Context, userID uuid.UUID, session *checkout.Session) (*checkout.Session, error) {
	if session.FrontImage == "" && session.BackImage == "" {
		return session, nil
	}
	if session.FrontImageURL != "" || session.BackImageURL != "" {
		// A previous Complete attempt already uploaded.
		return session, nil
	}

	if _, err := s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
		if err := requireState(session, checkout.StateMethodAttached, checkout.StateRedirectPolling,
			checkout.StateUploading, checkout.StatePersisting); err != nil {
			return err
		}
		session.State = checkout.StateUploading
		return nil
	}); err != nil {
		return nil, err
	}

	var frontURL, backURL string
	if session.FrontImage != "" {
		url, err := s.uploader.Upload(ctx, session.FrontImage, session.IntentID+"-front")
		if err != nil {
			return nil, fmt.Errorf("failed to upload front image: %w", err)
		}
		frontURL = url
	}
	if session.BackImage != "" {
		url, err := s.uploader.Upload(ctx, session.BackImage, session.IntentID+"-back")
		if err != nil {
			return nil, fmt.Errorf("failed to upload back image: %w", err)
		}
		backURL = url
	}

	return s.sessions.Update(ctx, userID, func(session *checkout.Session) error {
		if err := requireState(session, checkout.StateUploading, checkout.StatePersisting); err != nil {
			return err
		}
		session.FrontImageURL = frontURL
		session.BackImageURL = backURL
		session.FrontImage = ""
		session.BackImage = ""
		return nil
	})
}

// sendReceipt is best-effort: a failed receipt never fails the checkout.
func (s *CheckoutService) sendReceipt(ctx context.Context, order *models.Order, txn *models.Transaction) {
	logger := s.loggerFromContext(ctx)

	user, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		logger.Warn("failed to look up customer for receipt", "error", err, "user_id", order.UserID)
		return
	}

	info := email.ReceiptInfo{
		CustomerName:      user.Name,
		CustomerEmail:     user.Email,
		StoreName:         s.catalog.Store.Name,
		OrderID:           order.ID.String(),
		TransactionNumber: txn.TransactionNumber,
		Material:          order.Material,
		Quantity:          order.Quantity,
		Subtotal:          formatCents(txn.MerchandiseCents, s.catalog.Store.Currency),
		Shipping:          formatCents(txn.ShippingCents, s.catalog.Store.Currency),
		Total:             formatCents(txn.TotalAmountCents, s.catalog.Store.Currency),
		PaymentMethod:     txn.PaymentMethod,
		OrderDate:         txn.CreatedAt.Format("January 2, 2006"),
	}
	if err := email.SendReceipt(ctx, s.email, info); err != nil {
		logger.Warn("failed to send receipt email", "error", err, "order_id", order.ID)
	}
}

func newTransactionNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("TC-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}

func formatCents(cents int, currency string) string {
	return fmt.Sprintf("%s %d.%02d", strings.ToUpper(currency), cents/100, cents%100)
}

var _ orderWriter = (*db.OrderStore)(nil)
