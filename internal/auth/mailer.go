package auth

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/evcraddock/rental-arb/internal/email"
)

// SendFunc delivers a single plain-text message.
type SendFunc func(cfg email.SMTPConfig, to []string, subject, body string) error

// Mailer sends login emails.
type Mailer struct {
	config Config
	send   SendFunc
}

// NewMailer creates a mailer that delivers through email.Send.
func NewMailer(config Config) *Mailer {
	return &Mailer{config: config, send: email.Send}
}

// WithSender replaces the delivery function.
func (m *Mailer) WithSender(send SendFunc) *Mailer {
	m.send = send
	return m
}

// SendMagicLink sends a browser login link, or logs it in dev mode.
// Returns the link so callers can surface it in dev mode.
func (m *Mailer) SendMagicLink(to, token string) (string, error) {
	link := fmt.Sprintf("%s/auth/verify?token=%s", m.config.BaseURL, token)

	if m.config.DevMode {
		zap.L().Info("dev magic link", zap.String("email", to), zap.String("link", link))
		return link, nil
	}

	body := fmt.Sprintf(
		"Click the link below to log in to Rental Arb:\n\n%s\n\nThis link expires in 15 minutes and can only be used once.",
		link,
	)
	if err := m.send(m.config.SMTP, []string{to}, "Rental Arb - Login Link", body); err != nil {
		return "", err
	}

	return link, nil
}

// SendCLIToken sends a one-time code for `arb login`, or logs it in dev mode.
func (m *Mailer) SendCLIToken(to, token string) error {
	if m.config.DevMode {
		zap.L().Info("dev CLI login token", zap.String("email", to), zap.String("token", token))
		return nil
	}

	body := fmt.Sprintf(
		"Paste this code into the arb CLI to finish logging in:\n\n%s\n\nThis code expires in 15 minutes and can only be used once.",
		token,
	)
	return m.send(m.config.SMTP, []string{to}, "Rental Arb - CLI Login Code", body)
}
