package handlers

import (
	"errors"
	"net/http"

	"github.com/tapcardapp/tapcard/internal/checkout"
	"github.com/tapcardapp/tapcard/internal/payments"
	"github.com/tapcardapp/tapcard/internal/services"
)

// UpdateCheckoutDraft merges the submitted fields into the caller's draft.
func (h *Handlers) UpdateCheckoutDraft(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	var input services.DraftInput
	if err := decodeJSON(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.checkoutService.UpdateDraft(r.Context(), claims.UserID, input)
	if err != nil {
		if errors.Is(err, services.ErrWrongCheckoutState) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to update checkout draft", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update checkout draft")
		return
	}

	respondJSON(w, http.StatusOK, "ok", session)
}

// GetCheckoutSession returns the caller's current draft and checkout state.
func (h *Handlers) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	session, err := h.checkoutService.GetSession(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "no checkout in progress")
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to get checkout session", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to get checkout session")
		return
	}

	respondJSON(w, http.StatusOK, "ok", session)
}

// ClearCheckoutSession abandons the caller's draft.
func (h *Handlers) ClearCheckoutSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	if err := h.checkoutService.ClearSession(r.Context(), claims.UserID); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to clear checkout session", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to clear checkout session")
		return
	}

	respondJSON(w, http.StatusOK, "cleared", nil)
}

func (h *Handlers) StartCheckout(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	session, err := h.checkoutService.StartCheckout(r.Context(), claims.UserID)
	if err != nil {
		h.respondCheckoutError(w, r, err, "failed to start checkout")
		return
	}

	respondJSON(w, http.StatusOK, "checkout started", session)
}

type paymentMethodRequest struct {
	Kind string       `json:"kind" validate:"required,oneof=card gcash grab_pay"`
	Card *cardDetails `json:"card"`
}

type cardDetails struct {
	Number   string `json:"number" validate:"required,min=12,max=19"`
	ExpMonth int64  `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear  int64  `json:"exp_year" validate:"required,min=2024"`
	CVC      string `json:"cvc" validate:"required,min=3,max=4"`
}

func (h *Handlers) SubmitPaymentMethod(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	var req paymentMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Kind == "card" && req.Card == nil {
		respondError(w, http.StatusBadRequest, "card details are required")
		return
	}

	input := services.PaymentMethodInput{Kind: req.Kind}
	if req.Card != nil {
		input.Card = &payments.CardDetails{
			Number:   req.Card.Number,
			ExpMonth: req.Card.ExpMonth,
			ExpYear:  req.Card.ExpYear,
			CVC:      req.Card.CVC,
		}
	}

	session, err := h.checkoutService.SubmitPaymentMethod(r.Context(), claims.UserID, input)
	if err != nil {
		h.respondCheckoutError(w, r, err, "failed to submit payment method")
		return
	}

	respondJSON(w, http.StatusOK, "ok", session)
}

type redirectResultRequest struct {
	Result string `json:"result" validate:"required"`
}

func (h *Handlers) ConfirmRedirect(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	var req redirectResultRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.checkoutService.ConfirmRedirect(r.Context(), claims.UserID, req.Result)
	if err != nil {
		h.respondCheckoutError(w, r, err, "failed to confirm redirect result")
		return
	}

	respondJSON(w, http.StatusOK, "ok", session)
}

func (h *Handlers) CompleteCheckout(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	summary, err := h.checkoutService.Complete(r.Context(), claims.UserID)
	if err != nil {
		h.respondCheckoutError(w, r, err, "failed to complete checkout")
		return
	}

	respondJSON(w, http.StatusCreated, "order placed", summary)
}

func (h *Handlers) GetOrderSummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	summary, err := h.checkoutService.GetSummary(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "no order summary")
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to get order summary", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to get order summary")
		return
	}

	respondJSON(w, http.StatusOK, "ok", summary)
}

func (h *Handlers) DismissOrderSummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	if err := h.checkoutService.DismissSummary(r.Context(), claims.UserID); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to dismiss order summary", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to dismiss order summary")
		return
	}

	respondJSON(w, http.StatusOK, "dismissed", nil)
}

// respondCheckoutError maps checkout service errors onto status codes.
// Gateway failures stay behind a generic message.
func (h *Handlers) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "no checkout in progress")
	case errors.Is(err, services.ErrDraftIncomplete),
		errors.Is(err, services.ErrUnknownMaterial):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrWrongCheckoutState):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrPaymentNotSettled):
		respondError(w, http.StatusConflict, "payment has not settled yet")
	case errors.Is(err, payments.ErrGateway):
		h.loggerFromContext(r.Context()).Error("payment gateway call failed", "error", err)
		respondError(w, http.StatusBadGateway, fallback)
	default:
		h.loggerFromContext(r.Context()).Error("checkout step failed", "error", err)
		respondError(w, http.StatusInternalServerError, fallback)
	}
}
