package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendAPI is the part of the Resend emails service the provider uses.
type ResendAPI interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendProvider implements email sending via Resend API.
type ResendProvider struct {
	emails ResendAPI
}

// NewResendProvider creates a Resend provider. An empty API key yields an
// unconfigured provider.
func NewResendProvider(apiKey string) *ResendProvider {
	if apiKey == "" {
		slog.Warn("Resend API key not set, Resend provider will be unavailable")
		return &ResendProvider{}
	}
	return NewResendProviderWithClient(resend.NewClient(apiKey).Emails)
}

// NewResendProviderWithClient creates a Resend provider around an emails service.
func NewResendProviderWithClient(emails ResendAPI) *ResendProvider {
	return &ResendProvider{emails: emails}
}

// Name returns the provider name.
func (p *ResendProvider) Name() string {
	return "resend"
}

// IsConfigured returns true if Resend is properly configured.
func (p *ResendProvider) IsConfigured() bool {
	return p.emails != nil
}

// Send sends an email via Resend API. Both bodies are sent when present.
func (p *ResendProvider) Send(ctx context.Context, req *EmailRequest) error {
	if p.emails == nil {
		return fmt.Errorf("Resend client not initialized")
	}
	if len(req.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := p.emails.Send(&resend.SendEmailRequest{
		From:    req.From,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		Text:    req.Body,
	})
	if err != nil {
		return fmt.Errorf("Resend send failed: %w", err)
	}

	slog.Debug("Email sent via Resend", "email_id", result.Id, "to", req.To)
	return nil
}
