package email

import (
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/rental-arb/internal/deal"
	"github.com/evcraddock/rental-arb/internal/property"
)

func ptr[T any](v T) *T { return &v }

func TestFormatDealReport(t *testing.T) {
	scored := &property.Property{
		ID:          7,
		Address:     "123 Main St",
		City:        "Austin",
		State:       "TX",
		MonthlyRent: 2000,
		Beds:        2,
		Baths:       1,
		STRRate:     ptr(150.0),
		Status:      property.StatusVerified,
		Notes:       "Landlord allows subletting",
	}
	score := deal.Score(scored.Facts())
	scored.Score = &score

	unscored := &property.Property{
		ID:          8,
		Address:     "456 Oak Ave",
		City:        "Denver",
		State:       "CO",
		MonthlyRent: 12500,
		Beds:        4,
		Baths:       3,
		Status:      property.StatusUnverified,
	}

	body := FormatDealReport([]*property.Property{scored, unscored}, "http://localhost:8080/")

	assert.Contains(t, body, "2 rental arbitrage leads")
	assert.Contains(t, body, "1. 123 Main St, Austin, TX")
	assert.Contains(t, body, "2. 456 Oak Ave, Denver, CO")
	assert.Contains(t, body, "$2,000/mo | 2 bed | 1 bath")
	assert.Contains(t, body, "$12,500/mo")
	assert.Contains(t, body, "Spread: $1,150/mo (58%) at $150/night\n")
	assert.Contains(t, body, "Status: verified")
	assert.Contains(t, body, "Notes: Landlord allows subletting")
	assert.Contains(t, body, "http://localhost:8080/api/listings/7")
	assert.Contains(t, body, "Not scored yet")

	second := body[strings.Index(body, "2. 456 Oak Ave"):]
	assert.NotContains(t, second, "Status:")
	assert.NotContains(t, second, "Notes:")
}

func TestFormatDealReportEstimatedRate(t *testing.T) {
	p := &property.Property{Address: "9 Pine", City: "Nashville", State: "TN", MonthlyRent: 1500, Beds: 1, Baths: 1}
	score := deal.Score(p.Facts())
	p.Score = &score

	body := FormatDealReport([]*property.Property{p}, "")
	assert.Contains(t, body, "1 rental arbitrage lead ")
	assert.Contains(t, body, "est.")
	assert.NotContains(t, body, "/api/listings/")
}

func TestFormatDealReportEmpty(t *testing.T) {
	body := FormatDealReport(nil, "")
	assert.Contains(t, body, "0 rental arbitrage leads")
}

func TestSMTPConfigIsConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  SMTPConfig
		want bool
	}{
		{"fully configured", SMTPConfig{Host: "smtp.example.com", Port: "587", From: "test@example.com"}, true},
		{"missing host", SMTPConfig{From: "test@example.com"}, false},
		{"missing from", SMTPConfig{Host: "smtp.example.com"}, false},
		{"empty", SMTPConfig{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.IsConfigured())
		})
	}
}

func TestSendNotConfigured(t *testing.T) {
	err := Send(SMTPConfig{}, []string{"a@example.com"}, "s", "b")
	assert.True(t, eris.Is(err, ErrNotConfigured))
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("from@example.com", []string{"a@example.com", "b@example.com"}, "Leads", "body"))
	require.True(t, strings.HasSuffix(msg, "\r\n\r\nbody"))
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: Leads\r\n")
}

func TestFormatWithCommas(t *testing.T) {
	tests := map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -2500: "-2,500"}
	for in, want := range tests {
		assert.Equal(t, want, formatWithCommas(in))
	}
}
