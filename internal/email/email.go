// Package email formats deal reports and sends mail over SMTP.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"math"
	"net/smtp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/evcraddock/rental-arb/internal/property"
)

// ErrNotConfigured is returned by Send when no SMTP host or sender is set.
var ErrNotConfigured = eris.New("SMTP not configured")

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// FormatDealReport builds a plain-text digest of scored listings.
func FormatDealReport(listings []*property.Property, baseURL string) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Hi,\n\nHere are %d rental arbitrage %s worth a look:\n\n",
		len(listings), plural(len(listings), "lead", "leads"))

	for i, p := range listings {
		fmt.Fprintf(&buf, "%d. %s, %s, %s\n", i+1, p.Address, p.City, p.State)

		details := []string{
			fmt.Sprintf("$%s/mo", dollars(p.MonthlyRent)),
			fmt.Sprintf("%d bed", p.Beds),
			fmt.Sprintf("%d bath", p.Baths),
		}
		fmt.Fprintf(&buf, "   %s\n", strings.Join(details, " | "))

		if p.Score != nil {
			fmt.Fprintf(&buf, "   Score: %d (%s)\n", p.Score.TotalScore, p.Score.Grade)
			b := p.Score.Breakdown
			est := ""
			if b.STRRateEstimated {
				est = " est."
			}
			fmt.Fprintf(&buf, "   Spread: $%s/mo (%.0f%%) at $%.0f/night%s\n",
				dollars(b.SpreadAmount), b.SpreadPercent, b.STRRate, est)
		} else {
			fmt.Fprintf(&buf, "   Not scored yet\n")
		}

		if p.Status != property.StatusUnverified && p.Status != "" {
			fmt.Fprintf(&buf, "   Status: %s\n", p.Status)
		}
		if p.Notes != "" {
			fmt.Fprintf(&buf, "   Notes: %s\n", p.Notes)
		}
		if baseURL != "" {
			fmt.Fprintf(&buf, "   %s/api/listings/%d\n", strings.TrimRight(baseURL, "/"), p.ID)
		}

		fmt.Fprintln(&buf)
	}

	fmt.Fprintf(&buf, "Thanks!\n")

	return buf.String()
}

// Send sends an email via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg SMTPConfig, to []string, subject, body string) error {
	if !cfg.IsConfigured() {
		return ErrNotConfigured
	}
	if len(to) == 0 {
		return eris.New("no recipients")
	}

	msg := buildMessage(cfg.From, to, subject, body)
	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, to, msg)
	}
	return sendSTARTTLS(cfg, addr, to, msg)
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg []byte) (err error) {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return eris.Wrap(err, "TLS dial")
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return eris.Wrap(err, "creating SMTP client")
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = eris.Wrap(quitErr, "quit")
		}
	}()

	if cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)); err != nil {
			return eris.Wrap(err, "auth")
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return eris.Wrap(err, "mail from")
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return eris.Wrapf(err, "rcpt to %s", rcpt)
		}
	}

	w, err := c.Data()
	if err != nil {
		return eris.Wrap(err, "data")
	}
	if _, err := w.Write(msg); err != nil {
		return eris.Wrap(err, "write")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "close data")
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg []byte) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, msg); err != nil {
		return eris.Wrap(err, "sending email")
	}

	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func dollars(v float64) string {
	return formatWithCommas(int64(math.Round(v)))
}

func formatWithCommas(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
