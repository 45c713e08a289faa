// Package mailer sends plain text email over SMTP.
package mailer

import (
	"context"
	"fmt"

	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"gopkg.in/gomail.v2"
)

// Config represents the SMTP settings used to deliver email. An empty Host
// puts the mailer in log-only mode, which is useful for local development.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Mailer delivers messages through an SMTP relay.
type Mailer struct {
	log      *logger.Logger
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// New constructs a mailer for the specified SMTP relay.
func New(log *logger.Logger, cfg Config) *Mailer {
	m := Mailer{
		log:      log,
		from:     cfg.From,
		fromName: cfg.FromName,
	}

	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}

	return &m
}

// Send delivers a plain text message to the specified recipient.
func (m *Mailer) Send(ctx context.Context, to string, subject string, body string) error {
	if m.dialer == nil {
		m.log.Info(ctx, "mailer: smtp disabled, message not delivered", "to", to, "subject", subject)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.from, m.fromName))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("dialandsend: to[%s]: %w", to, err)
	}

	m.log.Info(ctx, "mailer: message delivered", "to", to, "subject", subject)

	return nil
}
