package handlers

import (
	"errors"
	"net/http"

	"github.com/tapcardapp/tapcard/internal/db"
)

func (h *Handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "transactionId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := h.transactions.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrTransactionNotFound) {
			respondError(w, http.StatusNotFound, "transaction not found")
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to get transaction", "error", err, "transaction_id", id)
		respondError(w, http.StatusInternalServerError, "failed to get transaction")
		return
	}
	if !h.requireSelfOrAdmin(w, r, txn.UserID) {
		return
	}

	respondJSON(w, http.StatusOK, "ok", txn)
}

func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.transactions.List(r.Context(), listLimit(r))
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list transactions", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	respondJSON(w, http.StatusOK, "ok", txns)
}

func (h *Handlers) ListTransactionsByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.requireSelfOrAdmin(w, r, userID) {
		return
	}

	txns, err := h.transactions.ListByUser(r.Context(), userID)
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list user transactions", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	respondJSON(w, http.StatusOK, "ok", txns)
}
