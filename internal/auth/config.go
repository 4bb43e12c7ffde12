// Package auth provides magic link login, sessions, passkeys, API keys and
// tiered access for the portal.
package auth

import (
	"github.com/evcraddock/rental-arb/internal/config"
	"github.com/evcraddock/rental-arb/internal/email"
)

// Config holds authentication configuration.
type Config struct {
	AdminEmail string
	SMTP       email.SMTPConfig
	DevMode    bool
	BaseURL    string // e.g. http://localhost:8080
}

// ConfigFrom derives auth settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		AdminEmail: cfg.Auth.AdminEmail,
		SMTP: email.SMTPConfig{
			Host: cfg.SMTP.Host,
			Port: cfg.SMTP.Port,
			User: cfg.SMTP.User,
			Pass: cfg.SMTP.Pass,
			From: cfg.SMTP.From,
		},
		DevMode: cfg.Server.DevMode,
		BaseURL: cfg.Server.BaseURL,
	}
}
