// Package email provides email provider interface.
package email

import (
	"context"
	"fmt"
)

type Provider interface {
	SendEmail(ctx context.Context, email *Email) error
}

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Config struct {
	Provider string
	APIKey   string
	From     string
	// Domain is the sending domain; only Mailgun needs it.
	Domain string
}

func NewProvider(config Config) (Provider, error) {
	switch config.Provider {
	case "none", "":
		return NoopProvider{}, nil
	case "resend":
		return NewResendProvider(config.APIKey, config.From), nil
	case "mailgun":
		if config.Domain == "" {
			return nil, fmt.Errorf("EMAIL_DOMAIN is required when EMAIL_PROVIDER is mailgun")
		}
		return NewMailgunProvider(config.APIKey, config.Domain, config.From), nil
	case "postmark":
		return NewPostmarkProvider(config.APIKey, config.From), nil
	default:
		return nil, fmt.Errorf("EMAIL_PROVIDER must be one of 'none', 'resend', 'mailgun', 'postmark'")
	}
}

// NoopProvider drops every email. Used when no provider is configured.
type NoopProvider struct{}

func (NoopProvider) SendEmail(ctx context.Context, email *Email) error {
	_ = ctx
	_ = email
	return nil
}
