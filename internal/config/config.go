package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	JWTSecret string        `env:"JWT_SECRET,required" validate:"required,min=32"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY,required" validate:"required"`
	// CheckoutReturnURL is where the gateway redirects after an off-site
	// authentication step. The redirect target embeds "success" or "cancel",
	// which the client reports back.
	CheckoutReturnURL string `env:"CHECKOUT_RETURN_URL,required" validate:"required,url"`

	UploadURL    string `env:"UPLOAD_URL,required" validate:"required,url"`
	UploadPreset string `env:"UPLOAD_PRESET,required" validate:"required"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	ChatBroker            string `env:"CHAT_BROKER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0"`

	CatalogPath string `env:"CATALOG_PATH" envDefault:"storefront.yaml" validate:"required"`

	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"none" validate:"omitempty,oneof=none resend mailgun postmark"`
	EmailAPIKey   string `env:"EMAIL_API_KEY"`
	EmailFrom     string `env:"EMAIL_FROM" validate:"omitempty,email"`
	EmailDomain   string `env:"EMAIL_DOMAIN"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	usesRedis := c.CacheProvider == "redis" || c.ChatBroker == "redis"
	if usesRedis && strings.TrimSpace(c.RedisConnectionString) == "" {
		return fmt.Errorf("REDIS_CONNECTION_STRING is required when a redis provider is selected")
	}

	if c.EmailProvider != "" && c.EmailProvider != "none" {
		if strings.TrimSpace(c.EmailAPIKey) == "" || strings.TrimSpace(c.EmailFrom) == "" {
			return fmt.Errorf("EMAIL_API_KEY and EMAIL_FROM are required when EMAIL_PROVIDER is %s", c.EmailProvider)
		}
		if c.EmailProvider == "mailgun" && strings.TrimSpace(c.EmailDomain) == "" {
			return fmt.Errorf("EMAIL_DOMAIN is required when EMAIL_PROVIDER is mailgun")
		}
	}

	return nil
}
