package catalog

import (
	"fmt"
	"strings"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(config *StorefrontConfig) error {
	if config == nil {
		return fmt.Errorf("config is required")
	}

	if strings.TrimSpace(config.Store.Name) == "" {
		return fmt.Errorf("store.name is required")
	}
	if strings.TrimSpace(config.Store.Currency) == "" {
		return fmt.Errorf("store.currency is required")
	}
	if config.Store.MaxQuantity <= 0 {
		return fmt.Errorf("store.max_quantity must be positive")
	}

	if len(config.Shipping) == 0 {
		return fmt.Errorf("at least one shipping method is required")
	}

	seen := make(map[string]struct{}, len(config.Shipping))
	for _, method := range config.Shipping {
		name := strings.TrimSpace(method.Name)
		if name == "" {
			return fmt.Errorf("shipping method name is required")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate shipping method: %s", name)
		}
		seen[name] = struct{}{}

		if method.FlatRateCents < 0 {
			return fmt.Errorf("shipping method %s: flat_rate_cents must not be negative", name)
		}
	}

	return nil
}
