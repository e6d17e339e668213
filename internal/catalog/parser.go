package catalog

// Package catalog provides storefront.yaml parsing functionality.

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type StorefrontConfig struct {
	Store    StoreConfig      `yaml:"store"`
	Shipping []ShippingMethod `yaml:"shipping"`
}

type StoreConfig struct {
	Name        string `yaml:"name"`
	Currency    string `yaml:"currency"`
	MaxQuantity int    `yaml:"max_quantity"`
}

type ShippingMethod struct {
	Name          string `yaml:"name"`
	Label         string `yaml:"label"`
	FlatRateCents int    `yaml:"flat_rate_cents"`
	Carrier       string `yaml:"carrier"`
	EstimatedDays int    `yaml:"estimated_days"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(content []byte) (*StorefrontConfig, error) {
	var config StorefrontConfig
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &config, nil
}

func (p *Parser) ParseFile(path string) (*StorefrontConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return p.Parse(content)
}

// Method returns the shipping method with the given name, or nil.
func (c *StorefrontConfig) Method(name string) *ShippingMethod {
	if c == nil {
		return nil
	}
	for i := range c.Shipping {
		if c.Shipping[i].Name == name {
			return &c.Shipping[i]
		}
	}
	return nil
}
