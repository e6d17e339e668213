// Package cache provides the key-value store backing checkout sessions
// and retained order summaries.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Provider defines the key-value contract shared by the memory and redis backends.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

func CheckoutSessionKey(userID string) string {
	return fmt.Sprintf("checkout:session:%s", userID)
}

func OrderSummaryKey(userID string) string {
	return fmt.Sprintf("checkout:summary:%s", userID)
}
