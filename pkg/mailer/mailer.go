// Package mailer sends plain-text transactional mail over SMTP. The only
// message this system sends is the magic-link login mail; anything richer
// belongs to an external delivery service.
package mailer

import (
	"fmt"
	"net/smtp"
	"time"

	"go.uber.org/zap"
)

// Config holds SMTP settings.
type Config struct {
	FromAddress string
	FromName    string
	Host        string
	Port        int
	User        string
	Pass        string
}

// Mailer delivers mail over SMTP. When Host is empty, sends are logged and
// dropped (local development).
type Mailer struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a Mailer.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// SendMagicLink sends the login link to recipient.
func (m *Mailer) SendMagicLink(recipient, recipientName, linkURL string, expiresAt time.Time) error {
	subject := "Your login link"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nUse this link to sign in:\r\n%s\r\n\r\nThe link expires at %s and can be used once.\r\n",
		recipientName, linkURL, expiresAt.UTC().Format(time.RFC1123),
	)
	return m.send(recipient, subject, body)
}

func (m *Mailer) send(recipient, subject, body string) error {
	if m.cfg.Host == "" {
		m.logger.Info("smtp not configured, dropping mail",
			zap.String("to", recipient), zap.String("subject", subject))
		return nil
	}
	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.cfg.FromName, m.cfg.FromAddress, recipient, subject, body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
