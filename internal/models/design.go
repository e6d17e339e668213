package models

import (
	"time"

	"github.com/google/uuid"
)

// CardDesign is a card template customers order from. Materials maps a
// material name (PVC, Metal, Wood, ...) to its unit price in cents.
type CardDesign struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	FrontImageURL string         `json:"front_image_url"`
	BackImageURL  string         `json:"back_image_url"`
	Materials     map[string]int `json:"materials"`
	Active        bool           `json:"active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     time.Time      `json:"deleted_at,omitzero"`
}

// UnitPriceCents returns the price for the given material, or false when the
// design does not offer it.
func (d *CardDesign) UnitPriceCents(material string) (int, bool) {
	if d == nil || d.Materials == nil {
		return 0, false
	}
	price, ok := d.Materials[material]
	return price, ok
}
