package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tapcardapp/tapcard/internal/db"
	"github.com/tapcardapp/tapcard/internal/models"
)

type designRequest struct {
	Name          string         `json:"name" validate:"required,min=1,max=120"`
	Description   string         `json:"description" validate:"max=2000"`
	FrontImageURL string         `json:"front_image_url" validate:"omitempty,url"`
	BackImageURL  string         `json:"back_image_url" validate:"omitempty,url"`
	Materials     map[string]int `json:"materials" validate:"required,min=1"`
	Active        *bool          `json:"active"`
}

func (r *designRequest) validateMaterials() error {
	for material, priceCents := range r.Materials {
		if strings.TrimSpace(material) == "" {
			return errors.New("material names must not be empty")
		}
		if priceCents <= 0 {
			return errors.New("material prices must be positive")
		}
	}
	return nil
}

func (h *Handlers) CreateDesign(w http.ResponseWriter, r *http.Request) {
	var req designRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validateMaterials(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	design := &models.CardDesign{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		FrontImageURL: req.FrontImageURL,
		BackImageURL:  req.BackImageURL,
		Materials:     req.Materials,
		Active:        true,
	}
	if req.Active != nil {
		design.Active = *req.Active
	}

	if err := h.designs.Create(r.Context(), design); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to create design", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create design")
		return
	}

	respondJSON(w, http.StatusCreated, "created", design)
}

func (h *Handlers) GetDesign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "designId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	design, err := h.designs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrDesignNotFound) {
			respondError(w, http.StatusNotFound, "design not found")
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to get design", "error", err, "design_id", id)
		respondError(w, http.StatusInternalServerError, "failed to get design")
		return
	}

	respondJSON(w, http.StatusOK, "ok", design)
}

func (h *Handlers) ListDesigns(w http.ResponseWriter, r *http.Request) {
	designs, err := h.designs.List(r.Context(), listLimit(r))
	if err != nil {
		h.loggerFromContext(r.Context()).Error("failed to list designs", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list designs")
		return
	}

	respondJSON(w, http.StatusOK, "ok", designs)
}

func (h *Handlers) UpdateDesign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "designId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req designRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validateMaterials(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	design, err := h.designs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrDesignNotFound) {
			respondError(w, http.StatusNotFound, "design not found")
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to get design for update", "error", err, "design_id", id)
		respondError(w, http.StatusInternalServerError, "failed to update design")
		return
	}

	design.Name = strings.TrimSpace(req.Name)
	design.Description = req.Description
	design.FrontImageURL = req.FrontImageURL
	design.BackImageURL = req.BackImageURL
	design.Materials = req.Materials
	if req.Active != nil {
		design.Active = *req.Active
	}

	if err := h.designs.Update(r.Context(), design); err != nil {
		h.loggerFromContext(r.Context()).Error("failed to update design", "error", err, "design_id", id)
		respondError(w, http.StatusInternalServerError, "failed to update design")
		return
	}

	respondJSON(w, http.StatusOK, "updated", design)
}

func (h *Handlers) DeleteDesign(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "designId")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.designs.SoftDelete(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrDesignNotFound) {
			respondError(w, http.StatusNotFound, "design not found")
			return
		}
		h.loggerFromContext(r.Context()).Error("failed to delete design", "error", err, "design_id", id)
		respondError(w, http.StatusInternalServerError, "failed to delete design")
		return
	}

	respondJSON(w, http.StatusOK, "deleted", nil)
}
