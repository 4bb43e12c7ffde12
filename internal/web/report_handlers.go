package web

import (
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/evcraddock/rental-arb/internal/deal"
	"github.com/evcraddock/rental-arb/internal/email"
	"github.com/evcraddock/rental-arb/internal/property"
)

const defaultReportLimit = 10

type reportRequest struct {
	To         []string `json:"to"`          // defaults to the caller
	ListingIDs []int64  `json:"listing_ids"` // specific IDs (optional)
	MinScore   *int     `json:"min_score"`   // filter (optional)
	Grade      string   `json:"grade"`       // filter (optional)
	Limit      int      `json:"limit"`       // default 10
	DryRun     bool     `json:"dry_run"`     // preview only, don't send
}

type reportResponse struct {
	Sent     bool     `json:"sent"`
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Listings int      `json:"listings"`
}

// handleEmailReport handles POST /api/reports/email (pro).
func (s *Server) handleEmailReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	to := make([]string, 0, len(req.To))
	for _, addr := range req.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		to = []string{callerEmail(r)}
	}

	listings, err := s.reportListings(r, req)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if len(listings) == 0 {
		apiError(w, "no listings match", http.StatusBadRequest)
		return
	}

	subject := "Rental arbitrage leads"
	body := email.FormatDealReport(listings, s.authCfg.BaseURL)
	resp := reportResponse{To: to, Subject: subject, Body: body, Listings: len(listings)}

	if req.DryRun {
		apiJSON(w, resp, http.StatusOK)
		return
	}

	if err := s.sendEmail(s.authCfg.SMTP, to, subject, body); err != nil {
		apiFail(w, r, err)
		return
	}

	resp.Sent = true
	apiJSON(w, resp, http.StatusOK)
}

func (s *Server) reportListings(r *http.Request, req reportRequest) ([]*property.Property, error) {
	repo := s.properties.Repo()

	if len(req.ListingIDs) > 0 {
		listings := make([]*property.Property, 0, len(req.ListingIDs))
		for _, id := range req.ListingIDs {
			p, err := repo.GetByID(r.Context(), id)
			if err != nil {
				return nil, err
			}
			listings = append(listings, p)
		}
		return listings, nil
	}

	opts := property.ListOptions{MinScore: req.MinScore, Limit: req.Limit}
	if opts.Limit <= 0 {
		opts.Limit = defaultReportLimit
	}
	if req.Grade != "" {
		if !deal.ValidGrade(req.Grade) {
			return nil, eris.Wrap(deal.ErrInvalidInput, "grade must be one of A+, A, B, C, D")
		}
		opts.Grade = deal.Grade(req.Grade)
	}
	return repo.List(r.Context(), opts)
}
