// Package mailer sends the transactional mail of the application:
// verification links, password resets and the security notices users can
// opt in and out of.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/beffroi/beffroi/internal/config"
)

// Message is one outgoing plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers messages. Implementations must be safe for concurrent
// use; handlers send from request goroutines.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when mail is enabled in the configuration,
// a logging mailer otherwise.
func New(cfg config.SMTPConfig, logger *slog.Logger) Mailer {
	if cfg.Enabled {
		return &SMTPMailer{cfg: cfg}
	}
	return &LogMailer{logger: logger}
}

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// Send delivers one message. The context is checked before dialing;
// net/smtp itself does not take one.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used in
// dev mode and whenever SMTP is not configured.
type LogMailer struct {
	logger *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if m.logger != nil {
		m.logger.Info("mail suppressed, smtp disabled",
			"to", msg.To, "subject", msg.Subject, "body", msg.Body)
	}
	return nil
}
