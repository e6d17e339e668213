package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/db"
	"github.com/tapcardapp/tapcard/internal/models"
)

type createReviewRequest struct {
	DesignID uuid.UUID `json:"design_id" validate:"required"`
	Rating   int       `json:"rating" validate:"required,min=1,max=5"`
	Comment  string    `json:"comment" validate:"max=2000"`
}

func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	var req createReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.designs.GetByID(r.Context(), req.DesignID); err != nil {
		if errors.Is(err, db.ErrDesignNotFound) {
			respondError(w, http.StatusNotFound, "design not found")
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to check design for review", "error", err, "design_id", req.DesignID)
		respondError(w, http.StatusInternalServerError, "failed to create review")
		return
	}

	review := &models.Review{
		UserID:   claims.UserID,
		DesignID: req.DesignID,
		Rating:   req.Rating,
		Comment:  strings.TrimSpace(req.Comment),
	}
	if err := h.reviews.Create(r.Context(), review); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to create review", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create review")
		return
	}

	respondJSON(w, http.StatusCreated, "created", review)
}

func (h *Handlers) ListReviewsByDesign(w http.ResponseWriter, r *http.Request) {
	designID, err := pathID(r, "designId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reviews, err := h.reviews.ListByDesign(r.Context(), designID)
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list reviews", "error", err, "design_id", designID)
		respondError(w, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	respondJSON(w, http.StatusOK, "ok", reviews)
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

func (h *Handlers) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reviewId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req updateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviews.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrReviewNotFound) {
			respondError(w, http.StatusNotFound, "review not found")
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to get review for update", "error", err, "review_id", id)
		respondError(w, http.StatusInternalServerError, "failed to update review")
		return
	}
	if !h.requireSelfOrAdmin(w, r, review.UserID) {
		return
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = strings.TrimSpace(*req.Comment)
	}

	if err := h.reviews.Update(r.Context(), review); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to update review", "error", err, "review_id", id)
		respondError(w, http.StatusInternalServerError, "failed to update review")
		return
	}

	respondJSON(w, http.StatusOK, "updated", review)
}

func (h *Handlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reviewId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviews.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrReviewNotFound) {
			respondError(w, http.StatusNotFound, "review not found")
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to get review for delete", "error", err, "review_id", id)
		respondError(w, http.StatusInternalServerError, "failed to delete review")
		return
	}
	if !h.requireSelfOrAdmin(w, r, review.UserID) {
		return
	}

	if err := h.reviews.SoftDelete(r.Context(), id); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to delete review", "error", err, "review_id", id)
		respondError(w, http.StatusInternalServerError, "failed to delete review")
		return
	}

	respondJSON(w, http.StatusOK, "deleted", nil)
}
