package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	apperrors "github.com/allisson/outreach/internal/errors"
)

// SMTPConfig holds SMTP submission settings.
type SMTPConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	From    string
	UseTLS  bool
	Timeout time.Duration
}

// SMTPRelay submits messages over an authenticated SMTP session with STARTTLS.
type SMTPRelay struct {
	config SMTPConfig
}

// NewSMTPRelay creates a new SMTPRelay.
func NewSMTPRelay(cfg SMTPConfig) *SMTPRelay {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPRelay{config: cfg}
}

// Validate checks that the required SMTP settings are present.
func (r *SMTPRelay) Validate() error {
	if r.config.Host == "" || r.config.User == "" || r.config.Pass == "" {
		return apperrors.Wrap(ErrConfig, "missing SMTP settings, configure SMTP_HOST/SMTP_USER/SMTP_PASS")
	}
	return nil
}

// From returns the effective sender address, falling back to the SMTP user.
func (r *SMTPRelay) From() string {
	if r.config.From != "" {
		return r.config.From
	}
	return r.config.User
}

// Send submits the message over a fresh SMTP session. The context deadline
// bounds the whole exchange; expiry surfaces as a transient error.
func (r *SMTPRelay) Send(ctx context.Context, msg *Message) error {
	if err := r.Validate(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", r.config.Host, r.config.Port)

	dialer := &net.Dialer{Timeout: r.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return classifySMTPError(err)
	}

	// The session deadline is the context deadline when present, otherwise
	// the configured timeout.
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(r.config.Timeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return classifySMTPError(err)
	}

	client, err := smtp.NewClient(conn, r.config.Host)
	if err != nil {
		_ = conn.Close()
		return classifySMTPError(err)
	}
	defer client.Close() //nolint:errcheck

	if r.config.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: r.config.Host}); err != nil {
			return classifySMTPError(err)
		}
	}

	auth := smtp.PlainAuth("", r.config.User, r.config.Pass, r.config.Host)
	if err := client.Auth(auth); err != nil {
		return classifySMTPError(err)
	}

	if err := client.Mail(msg.From); err != nil {
		return classifySMTPError(err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return classifySMTPError(err)
	}

	w, err := client.Data()
	if err != nil {
		return classifySMTPError(err)
	}
	if _, err := w.Write([]byte(EncodeMessage(msg))); err != nil {
		_ = w.Close()
		return classifySMTPError(err)
	}
	if err := w.Close(); err != nil {
		return classifySMTPError(err)
	}

	return classifySMTPError(client.Quit())
}

// EncodeMessage renders the RFC 5322 wire form of the message, including the
// stable Message-ID header used for relay-side deduplication.
func EncodeMessage(msg *Message) string {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Message-ID: %s\r\n", msg.MessageID)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")

	// Normalize bare newlines for SMTP.
	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")

	return b.String()
}

// classifySMTPError maps an SMTP session error onto the relay taxonomy.
// 5xx replies are permanent rejections; 4xx replies, timeouts, and network
// errors are transient.
func classifySMTPError(err error) error {
	if err == nil {
		return nil
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		if tpErr.Code >= 500 {
			return apperrors.Wrap(ErrPermanent, err.Error())
		}
		return apperrors.Wrap(ErrTransient, err.Error())
	}

	// Timeouts, refused connections, DNS failures.
	return apperrors.Wrap(ErrTransient, err.Error())
}
