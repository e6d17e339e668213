package catalog

// Package catalog provides price calculation functionality.

import "fmt"

// Quote is the priced breakdown of an order draft. The same quote is sent to
// the payment gateway and recorded on the transaction, so subtotal, shipping
// and total can never drift apart.
type Quote struct {
	UnitPriceCents int    `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	SubtotalCents  int    `json:"subtotal_cents"`
	ShippingCents  int    `json:"shipping_cents"`
	TotalCents     int    `json:"total_cents"`
	ShippingMethod string `json:"shipping_method"`
}

type Pricer struct{}

func NewPricer() *Pricer {
	return &Pricer{}
}

// QuoteOrder prices an order draft against the storefront config.
func (p *Pricer) QuoteOrder(config *StorefrontConfig, unitPriceCents, quantity int, shippingMethod string) (*Quote, error) {
	if unitPriceCents <= 0 {
		return nil, fmt.Errorf("unit price must be positive")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if config != nil && config.Store.MaxQuantity > 0 && quantity > config.Store.MaxQuantity {
		return nil, fmt.Errorf("quantity %d exceeds maximum of %d", quantity, config.Store.MaxQuantity)
	}

	method := config.Method(shippingMethod)
	if method == nil {
		return nil, fmt.Errorf("unknown shipping method: %s", shippingMethod)
	}

	subtotal := unitPriceCents * quantity
	return &Quote{
		UnitPriceCents: unitPriceCents,
		Quantity:       quantity,
		SubtotalCents:  subtotal,
		ShippingCents:  method.FlatRateCents,
		TotalCents:     subtotal + method.FlatRateCents,
		ShippingMethod: method.Name,
	}, nil
}
