package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/cache"
	"github.com/tapcardapp/tapcard/internal/catalog"
	"github.com/tapcardapp/tapcard/internal/checkout"
	"github.com/tapcardapp/tapcard/internal/models"
	"github.com/tapcardapp/tapcard/internal/payments"
)

type fakeGateway struct {
	attachStatus payments.IntentStatus
	getStatus    payments.IntentStatus
	redirectURL  string

	createErr error
	attachErr error

	createdAmount int64
	attachCalls   int
	getCalls      int
}

func (g *fakeGateway) CreateIntent(ctx context.Context, amountCents int64, description string) (*payments.Intent, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.createdAmount = amountCents
	return &payments.Intent{ID: "pi_test_1", AmountCents: amountCents, Status: payments.IntentPending}, nil
}

func (g *fakeGateway) CreateCardMethod(ctx context.Context, card payments.CardDetails) (string, error) {
	return "pm_card_1", nil
}

func (g *fakeGateway) CreateEWalletMethod(ctx context.Context, kind string) (string, error) {
	return "pm_wallet_1", nil
}

func (g *fakeGateway) Attach(ctx context.Context, intentID, methodID, returnURL string) (*payments.Intent, error) {
	g.attachCalls++
	if g.attachErr != nil {
		return nil, g.attachErr
	}
	return &payments.Intent{ID: intentID, Status: g.attachStatus, RedirectURL: g.redirectURL}, nil
}

func (g *fakeGateway) GetIntent(ctx context.Context, intentID string) (*payments.Intent, error) {
	g.getCalls++
	return &payments.Intent{ID: intentID, Status: g.getStatus}, nil
}

type fakeDesigns struct {
	design *models.CardDesign
}

func (f *fakeDesigns) GetByID(ctx context.Context, id uuid.UUID) (*models.CardDesign, error) {
	if f.design == nil || f.design.ID != id {
		return nil, errors.New("design not found")
	}
	return f.design, nil
}

type fakeOrders struct {
	orders map[string]*models.Order
	txns   map[string]*models.Transaction
	calls  int
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		orders: make(map[string]*models.Order),
		txns:   make(map[string]*models.Transaction),
	}
}

func (f *fakeOrders) CreateWithTransaction(ctx context.Context, order *models.Order, txn *models.Transaction) error {
	f.calls++
	if existing, ok := f.orders[order.PaymentIntentID]; ok {
		*order = *existing
		*txn = *f.txns[order.PaymentIntentID]
		return nil
	}
	order.ID = uuid.New()
	txn.ID = uuid.New()
	txn.OrderID = order.ID
	txn.UserID = order.UserID
	stored := *order
	storedTxn := *txn
	f.orders[order.PaymentIntentID] = &stored
	f.txns[order.PaymentIntentID] = &storedTxn
	return nil
}

type fakeUsers struct {
	user *models.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.user == nil {
		return nil, errors.New("user not found")
	}
	return f.user, nil
}

type fakeUploader struct {
	uploads map[string]string
}

func (f *fakeUploader) Upload(ctx context.Context, payload, publicID string) (string, error) {
	if f.uploads == nil {
		f.uploads = make(map[string]string)
	}
	url := "https://cdn.example.com/" + publicID + ".png"
	f.uploads[publicID] = url
	return url, nil
}

type checkoutFixture struct {
	service  *CheckoutService
	gateway  *fakeGateway
	orders   *fakeOrders
	uploader *fakeUploader
	userID   uuid.UUID
	designID uuid.UUID
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	store, err := cache.NewMemoryProvider()
	if err != nil {
		t.Fatalf("NewMemoryProvider() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	designID := uuid.New()
	userID := uuid.New()

	gateway := &fakeGateway{attachStatus: payments.IntentSucceeded, getStatus: payments.IntentSucceeded}
	orders := newFakeOrders()
	uploader := &fakeUploader{}

	storefront := &catalog.StorefrontConfig{
		Store: catalog.StoreConfig{Name: "TapCard", Currency: "php", MaxQuantity: 10},
		Shipping: []catalog.ShippingMethod{
			{Name: "standard", Label: "Standard", FlatRateCents: 5800, Carrier: "LBC", EstimatedDays: 5},
		},
	}

	service := NewCheckoutService(
		checkout.NewRepository(store),
		&fakeDesigns{design: &models.CardDesign{
			ID:        designID,
			Name:      "Matte Black",
			Materials: map[string]int{"PVC": 15000, "Metal": 45000},
		}},
		orders,
		&fakeUsers{user: &models.User{ID: userID, Name: "Ana", Email: "ana@example.com"}},
		gateway,
		uploader,
		storefront,
		catalog.NewPricer(),
		nil,
		"https://app.example.com/checkout/return",
		slog.New(slog.DiscardHandler),
	)

	return &checkoutFixture{
		service:  service,
		gateway:  gateway,
		orders:   orders,
		uploader: uploader,
		userID:   userID,
		designID: designID,
	}
}

func (f *checkoutFixture) fillDraft(t *testing.T) {
	t.Helper()

	material := "PVC"
	quantity := 2
	shipping := "standard"
	method := "card"
	front := "data:image/png;base64,AAAA"
	_, err := f.service.UpdateDraft(t.Context(), f.userID, DraftInput{
		DesignID:        &f.designID,
		Material:        &material,
		Quantity:        &quantity,
		ShippingMethod:  &shipping,
		DeliveryAddress: map[string]any{"line1": "12 Mabini St", "city": "Quezon City"},
		PaymentMethod:   &method,
		FrontImage:      &front,
	})
	if err != nil {
		t.Fatalf("UpdateDraft() error = %v", err)
	}
}

func TestStartCheckoutQuotesAndCreatesIntent(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.fillDraft(t)

	session, err := f.service.StartCheckout(t.Context(), f.userID)
	if err != nil {
		t.Fatalf("StartCheckout() error = %v", err)
	}

	if session.State != checkout.StateIntentCreated {
		t.Errorf("State = %s, want %s", session.State, checkout.StateIntentCreated)
	}
	if session.IntentID != "pi_test_1" {
		t.Errorf("IntentID = %q, want pi_test_1", session.IntentID)
	}
	// 2 PVC cards at 15000 plus 5800 standard shipping.
	if session.Quote.TotalCents != 35800 {
		t.Errorf("Quote.TotalCents = %d, want 35800", session.Quote.TotalCents)
	}
	if f.gateway.createdAmount != 35800 {
		t.Errorf("gateway charged %d, want 35800", f.gateway.createdAmount)
	}
}

func TestStartCheckoutIncompleteDraft(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	material := "PVC"
	if _, err := f.service.UpdateDraft(t.Context(), f.userID, DraftInput{Material: &material}); err != nil {
		t.Fatalf("UpdateDraft() error = %v", err)
	}

	_, err := f.service.StartCheckout(t.Context(), f.userID)
	if !errors.Is(err, ErrDraftIncomplete) {
		t.Fatalf("StartCheckout() error = %v, want ErrDraftIncomplete", err)
	}
	for _, field := range []string{"design_id", "quantity", "shipping_method", "delivery_address"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not name missing field %s", err, field)
		}
	}
}

func TestStartCheckoutUnknownMaterial(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.fillDraft(t)
	material := "Glass"
	if _, err := f.service.UpdateDraft(t.Context(), f.userID, DraftInput{Material: &material}); err != nil {
		t.Fatalf("UpdateDraft() error = %v", err)
	}

	if _, err := f.service.StartCheckout(t.Context(), f.userID); !errors.Is(err, ErrUnknownMaterial) {
		t.Errorf("StartCheckout() error = %v, want ErrUnknownMaterial", err)
	}
}

func TestSubmitPaymentMethodImmediateSuccess(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.fillDraft(t)
	if _, err := f.service.StartCheckout(t.Context(), f.userID); err != nil {
		t.Fatalf("StartCheckout() error = %v", err)
	}

	session, err := f.service.SubmitPaymentMethod(t.Context(), f.userID, PaymentMethodInput{
		Kind: "card",
		Card: &payments.CardDetails{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123"},
	})
	if err != nil {
		t.Fatalf("SubmitPaymentMethod() error = %v", err)
	}
	if session.State != checkout.StateMethodAttached {
		t.Errorf("State = %s, want %s", session.State, checkout.StateMethodAttached)
	}
}

func TestSubmitPaymentMethodRedirect(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.gateway.attachStatus = payments.IntentAwaitingRedirect
	f.gateway.redirectURL = "https://gateway.example.com/authorize/pi_test_1"
	f.fillDraft(t)
	if _, err := f.service.StartCheckout(t.Context(), f.userID); err != nil {
		t.Fatalf("StartCheckout() error = %v", err)
	}

	session, err := f.service.SubmitPaymentMethod(t.Context(), f.userID, PaymentMethodInput{Kind: "gcash"})
	if err != nil {
		t.Fatalf("SubmitPaymentMethod() error = %v", err)
	}
	if session.State != checkout.StateAwaitingRedirect {
		t.Errorf("State = %s, want %s", session.State, checkout.StateAwaitingRedirect)
	}
	if session.RedirectURL != f.gateway.redirectURL {
		t.Errorf("RedirectURL = %q, want %q", session.RedirectURL, f.gateway.redirectURL)
	}
}

func TestSubmitPaymentMethodAttachDeclined(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.gateway.attachErr = errors.New("card declined")
	f.fillDraft(t)
	if _, err := f.service.StartCheckout(t.Context(), f.userID); err != nil {
		t.Fatalf("StartCheckout() error = %v", err)
	}

	session, err := f.service.SubmitPaymentMethod(t.Context(), f.userID, PaymentMethodInput{
		Kind: "card",
		Card: &payments.CardDetails{Number: "4000000000000002", ExpMonth: 12, ExpYear: 2030, CVC: "123"},
	})
	if err != nil {
		t.Fatalf("SubmitPaymentMethod() error = %v", err)
	}
	if session.State != checkout.StateFailed {
		t.Errorf("State = %s, want %s", session.State, checkout.StateFailed)
	}
	if f.orders.calls != 0 {
		t.Errorf("order write calls = %d, want 0", f.orders.calls)
	}
}

// interleavingGateway runs a callback during CreateCardMethod, between the
// caller's state snapshot and its locked session claim.
type interleavingGateway struct {
	*fakeGateway
	onCreateMethod func()
}

func (g *interleavingGateway) CreateCardMethod(ctx context.Context, card payments.CardDetails) (string, error) {
	if g.onCreateMethod != nil {
		hook := g.onCreateMethod
		g.onCreateMethod = nil
		hook()
	}
	return g.fakeGateway.CreateCardMethod(ctx, card)
}

func TestSubmitPaymentMethodDuplicateDoesNotClobberSettledPayment(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.fillDraft(t)
	ctx := t.Context()
	if _, err := f.service.StartCheckout(ctx, f.userID); err != nil {
		t.Fatalf("StartCheckout() error = %v", err)
	}

	card := &payments.CardDetails{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123"}

	// The duplicate request reads its state snapshot first; the original
	// request then settles the payment before the duplicate claims the
	// session.
	gateway := &interleavingGateway{fakeGateway: f.gateway}
	gateway.onCreateMethod = func() {
		if _, err := f.service.SubmitPaymentMethod(ctx, f.userID, PaymentMethodInput{Kind: "card", Card: card}); err != nil {
			t.Errorf("original SubmitPaymentMethod() error = %v", err)
		}
	}
	f.service.gateway = gateway

	_, err := f.service.SubmitPaymentMethod(ctx, f.userID, PaymentMethodInput{Kind: "card", Card: card})
	if !errors.Is(err, ErrWrongCheckoutState) {
		t.Fatalf("duplicate SubmitPaymentMethod() error = %v, want ErrWrongCheckoutState", err)
	}

	session, err := f.service.GetSession(ctx, f.userID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if session.State != checkout.StateMethodAttached {
		t.Errorf("State = %s, want %s; the settled payment must not be marked failed", session.State, checkout.StateMethodAttached)
	}
	if f.gateway.attachCalls != 1 {
		t.Errorf("attach calls = %d, want 1; the duplicate must not reach the gateway", f.gateway.attachCalls)
	}
}

func TestConfirmRedirectCancelLeavesNoOrder(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.gateway.attachStatus = payments.IntentAwaitingRedirect
	f.gateway.redirectURL = "https://gateway.example.com/authorize/pi_test_1"
	f.fillDraft(t)
	if _, err := f.service.StartCheckout(t.Context(), f.userID); err != nil {
		t.Fatalf("StartCheckout() error = %v", err)
	}
	if _, err := f.service.SubmitPaymentMethod(t.Context(), f.userID, PaymentMethodInput{Kind: "gcash"}); err != nil {
		t.Fatalf("SubmitPaymentMethod() error = %v", err)
	}

	session, err := f.service.ConfirmRedirect(t.Context(), f.userID, "https://app.example.com/checkout/return?result=cancel")
	if err != nil {
		t.Fatalf("ConfirmRedirect() error = %v", err)
	}
	if session.State != checkout.StateFailed {
		t.Errorf("State = %s, want %s", session.State, checkout.StateFailed)
	}
	if f.orders.calls != 0 {
		t.Errorf("order write calls = %d, want 0", f.orders.calls)
	}
}

func TestConfirmRedirectSuccessPollsIntent(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.gateway.attachStatus = payments.IntentAwaitingRedirect
	f.gateway.redirectURL = "https://gateway.example.com/authorize/pi_test_1"
	f.fillDraft(t)
	if _, err := f.service.StartCheckout(t.Context(), f.userID); err != nil {
		t.Fatalf("StartCheckout() error = %v", err)
	}
	if _, err := f.service.SubmitPaymentMethod(t.Context(), f.userID, PaymentMethodInput{Kind: "gcash"}); err != nil {
		t.Fatalf("SubmitPaymentMethod() error = %v", err)
	}

	session, err := f.service.ConfirmRedirect(t.Context(), f.userID, "https://app.example.com/checkout/return?result=success")
	if err != nil {
		t.Fatalf("ConfirmRedirect() error = %v", err)
	}
	if session.State != checkout.StateMethodAttached {
		t.Errorf("State = %s, want %s", session.State, checkout.StateMethodAttached)
	}
	if f.gateway.getCalls == 0 {
		t.Error("success report was trusted without polling the intent")
	}
}

func TestCompleteWritesOrderAndClearsDraft(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.fillDraft(t)
	ctx := t.Context()
	if _, err := f.service.StartCheckout(ctx, f.userID); err != nil {
		t.Fatalf("StartCheckout() error = %v", err)
	}
	if _, err := f.service.SubmitPaymentMethod(ctx, f.userID, PaymentMethodInput{
		Kind: "card",
		Card: &payments.CardDetails{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123"},
	}); err != nil {
		t.Fatalf("SubmitPaymentMethod() error = %v", err)
	}

	summary, err := f.service.Complete(ctx, f.userID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	order := f.orders.orders["pi_test_1"]
	if order == nil {
		t.Fatal("no order written for pi_test_1")
	}
	if order.TotalCents != 35800 {
		t.Errorf("order TotalCents = %d, want 35800", order.TotalCents)
	}
	if order.Status != models.StatusPending {
		t.Errorf("order Status = %s, want %s", order.Status, models.StatusPending)
	}
	if order.FrontImageURL == "" {
		t.Error("order FrontImageURL not set after upload")
	}
	if !strings.Contains(f.uploader.uploads["pi_test_1-front"], "pi_test_1-front") {
		t.Errorf("front image not uploaded under the intent id, uploads = %v", f.uploader.uploads)
	}

	txn := f.orders.txns["pi_test_1"]
	if txn.TotalAmountCents != order.TotalCents {
		t.Errorf("transaction total %d does not match order total %d", txn.TotalAmountCents, order.TotalCents)
	}
	if txn.MerchandiseCents+txn.ShippingCents != txn.TotalAmountCents {
		t.Errorf("transaction breakdown %d+%d does not sum to %d", txn.MerchandiseCents, txn.ShippingCents, txn.TotalAmountCents)
	}
	if txn.Status != models.TransactionCompleted {
		t.Errorf("transaction Status = %s, want %s", txn.Status, models.TransactionCompleted)
	}
	if summary.TransactionNumber == "" {
		t.Error("summary TransactionNumber is empty")
	}

	// The draft is gone but the summary survives.
	if _, err := f.service.GetSession(ctx, f.userID); !errors.Is(err, checkout.ErrSessionNotFound) {
		t.Errorf("GetSession() after Complete error = %v, want ErrSessionNotFound", err)
	}
	got, err := f.service.GetSummary(ctx, f.userID)
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if got.OrderID != summary.OrderID {
		t.Errorf("retained summary OrderID = %s, want %s", got.OrderID, summary.OrderID)
	}

	if err := f.service.DismissSummary(ctx, f.userID); err != nil {
		t.Fatalf("DismissSummary() error = %v", err)
	}
	if _, err := f.service.GetSummary(ctx, f.userID); !errors.Is(err, checkout.ErrSessionNotFound) {
		t.Errorf("GetSummary() after dismiss error = %v, want ErrSessionNotFound", err)
	}
}

func TestCompleteRejectsUnsettledPayment(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.gateway.getStatus = payments.IntentPending
	f.fillDraft(t)
	ctx := t.Context()
	if _, err := f.service.StartCheckout(ctx, f.userID); err != nil {
		t.Fatalf("StartCheckout() error = %v", err)
	}
	if _, err := f.service.SubmitPaymentMethod(ctx, f.userID, PaymentMethodInput{
		Kind: "card",
		Card: &payments.CardDetails{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123"},
	}); err != nil {
		t.Fatalf("SubmitPaymentMethod() error = %v", err)
	}

	if _, err := f.service.Complete(ctx, f.userID); !errors.Is(err, ErrPaymentNotSettled) {
		t.Errorf("Complete() error = %v, want ErrPaymentNotSettled", err)
	}
	if f.orders.calls != 0 {
		t.Errorf("order write calls = %d, want 0", f.orders.calls)
	}
}

func TestRetryAfterFailureStartsFresh(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.gateway.createErr = errors.New("gateway down")
	f.fillDraft(t)
	ctx := t.Context()

	if _, err := f.service.StartCheckout(ctx, f.userID); err == nil {
		t.Fatal("StartCheckout() succeeded with gateway down")
	}
	session, err := f.service.GetSession(ctx, f.userID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if session.State != checkout.StateFailed {
		t.Fatalf("State = %s, want %s", session.State, checkout.StateFailed)
	}

	// Editing the draft after a failure resets it for another attempt.
	f.gateway.createErr = nil
	f.fillDraft(t)
	session, err = f.service.StartCheckout(ctx, f.userID)
	if err != nil {
		t.Fatalf("StartCheckout() retry error = %v", err)
	}
	if session.State != checkout.StateIntentCreated {
		t.Errorf("State = %s, want %s", session.State, checkout.StateIntentCreated)
	}
}

func TestTransactionNumberFormat(t *testing.T) {
	t.Parallel()

	number := newTransactionNumber()
	if !strings.HasPrefix(number, "TC-") {
		t.Errorf("transaction number %q missing TC- prefix", number)
	}
	if len(number) != len(fmt.Sprintf("TC-%s-%s", "20060102", "ABCDEF12")) {
		t.Errorf("transaction number %q has unexpected length", number)
	}
	if number == newTransactionNumber() {
		t.Error("consecutive transaction numbers collided")
	}
}
