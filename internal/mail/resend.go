package mail

import (
	"context"

	"github.com/resend/resend-go/v3"

	apperrors "github.com/allisson/outreach/internal/errors"
)

// ResendConfig holds Resend relay settings.
type ResendConfig struct {
	APIKey string
	From   string
}

// ResendRelay submits messages through the Resend HTTP API instead of a
// direct SMTP session.
type ResendRelay struct {
	client *resend.Client
	config ResendConfig
}

// NewResendRelay creates a new ResendRelay.
func NewResendRelay(cfg ResendConfig) *ResendRelay {
	return &ResendRelay{
		client: resend.NewClient(cfg.APIKey),
		config: cfg,
	}
}

// Validate checks that the required Resend settings are present.
func (r *ResendRelay) Validate() error {
	if r.config.APIKey == "" {
		return apperrors.Wrap(ErrConfig, "missing Resend settings, configure RESEND_API_KEY")
	}
	if r.config.From == "" {
		return apperrors.Wrap(ErrConfig, "missing sender address, configure MAIL_FROM")
	}
	return nil
}

// From returns the configured sender address.
func (r *ResendRelay) From() string {
	return r.config.From
}

// Send submits the message via the Resend API. API errors are reported as
// transient: the retry ceiling bounds how long the worker keeps trying, and
// Resend collapses duplicate submissions on the Message-Id header.
func (r *ResendRelay) Send(ctx context.Context, msg *Message) error {
	if err := r.Validate(); err != nil {
		return err
	}

	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Body,
		Headers: map[string]string{
			"Message-ID": msg.MessageID,
		},
	}

	if _, err := r.client.Emails.SendWithContext(ctx, req); err != nil {
		return apperrors.Wrap(ErrTransient, err.Error())
	}

	return nil
}
