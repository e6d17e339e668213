package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusShipped   OrderStatus = "Shipped"
	StatusDelivered OrderStatus = "Delivered"
)

// ValidOrderStatus reports whether s is one of the accepted order statuses.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered:
		return true
	default:
		return false
	}
}

type Order struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	DesignID        uuid.UUID      `json:"design_id"`
	Material        string         `json:"material"`
	Quantity        int            `json:"quantity"`
	UnitPriceCents  int            `json:"unit_price_cents"`
	SubtotalCents   int            `json:"subtotal_cents"`
	ShippingCents   int            `json:"shipping_cents"`
	TotalCents      int            `json:"total_cents"`
	FrontImageURL   string         `json:"front_image_url"`
	BackImageURL    string         `json:"back_image_url"`
	ShippingMethod  string         `json:"shipping_method"`
	DeliveryAddress map[string]any `json:"delivery_address"`
	PaymentIntentID string         `json:"payment_intent_id"`
	Status          OrderStatus    `json:"order_status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       time.Time      `json:"deleted_at,omitzero"`
}
