package handlers

import "net/http"

// Dashboard returns the admin aggregates: entity counts and settled revenue.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to load dashboard stats", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, "ok", stats)
}
