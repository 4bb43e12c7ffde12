// Package client provides an HTTP client for the rental-arb REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/evcraddock/rental-arb/internal/analysis"
	"github.com/evcraddock/rental-arb/internal/auth"
	"github.com/evcraddock/rental-arb/internal/deal"
	"github.com/evcraddock/rental-arb/internal/property"
	"github.com/evcraddock/rental-arb/internal/verification"
)

// Client is an HTTP client for the rental-arb API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status of an API error, or 0 if err did not
// come from the server.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Me is the response from GET /api/me.
type Me struct {
	Email string    `json:"email"`
	Tier  auth.Tier `json:"tier"`
}

// Me returns the caller's identity and tier.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.get(ctx, "/api/me", &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// RateEstimate is the response from POST /api/estimate/rate.
type RateEstimate struct {
	NightlyRate float64 `json:"nightly_rate"`
	PremiumCity bool    `json:"premium_city"`
	Beds        int     `json:"beds"`
	Baths       int     `json:"baths"`
	City        string  `json:"city"`
}

// EstimateRate returns the fallback nightly rate for a unit.
func (c *Client) EstimateRate(ctx context.Context, beds, baths int, city string) (*RateEstimate, error) {
	body := map[string]any{"beds": beds, "baths": baths, "city": city}
	var est RateEstimate
	if err := c.post(ctx, "/api/estimate/rate", body, &est); err != nil {
		return nil, err
	}
	return &est, nil
}

// QuickEstimate returns the live quick-ROI figures for req.
func (c *Client) QuickEstimate(ctx context.Context, req analysis.SaveRequest) (*deal.QuickResult, error) {
	var res deal.QuickResult
	if err := c.post(ctx, "/api/estimate/quick", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Score scores ad-hoc facts without storing a listing.
func (c *Client) Score(ctx context.Context, facts deal.PropertyFacts) (*deal.LeadScore, error) {
	var s deal.LeadScore
	if err := c.post(ctx, "/api/score", facts, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ROIResponse is the response from POST /api/roi.
type ROIResponse struct {
	Inputs  deal.RoiInputs  `json:"inputs"`
	Results deal.RoiResults `json:"results"`
}

// ROI runs the full calculator on the server.
func (c *Client) ROI(ctx context.Context, in deal.RoiInputs) (*ROIResponse, error) {
	var resp ROIResponse
	if err := c.post(ctx, "/api/roi", in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListOptions controls filtering for ListListings.
type ListOptions struct {
	MinScore *int
	Grade    string
	City     string
	Status   string // unverified, pending, verified, rejected (empty = all)
	Limit    int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.MinScore != nil {
		q.Set("min_score", strconv.Itoa(*o.MinScore))
	}
	if o.Grade != "" {
		q.Set("grade", o.Grade)
	}
	if o.City != "" {
		q.Set("city", o.City)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// ListListings returns listings ordered by score, optionally filtered.
func (c *Client) ListListings(ctx context.Context, opts ListOptions) ([]*property.Property, error) {
	var listings []*property.Property
	if err := c.get(ctx, "/api/listings"+opts.query(), &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// ListingDetail is the response from GET /api/listings/{id}.
type ListingDetail struct {
	*property.Property
	Verifications []*verification.Request `json:"verifications"`
}

// GetListing returns a listing with its verification history.
func (c *Client) GetListing(ctx context.Context, id int64) (*ListingDetail, error) {
	var detail ListingDetail
	if err := c.get(ctx, fmt.Sprintf("/api/listings/%d", id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// AddListing adds and scores a listing.
func (c *Client) AddListing(ctx context.Context, in property.NewProperty) (*property.Property, error) {
	var p property.Property
	if err := c.post(ctx, "/api/listings", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteListing removes a listing.
func (c *Client) DeleteListing(ctx context.Context, id int64) error {
	return c.doDelete(ctx, fmt.Sprintf("/api/listings/%d", id))
}

// UpdateNotes replaces a listing's notes.
func (c *Client) UpdateNotes(ctx context.Context, id int64, notes string) error {
	return c.put(ctx, fmt.Sprintf("/api/listings/%d/notes", id), map[string]string{"notes": notes}, nil)
}

// RescoreListing recomputes one listing's score.
func (c *Client) RescoreListing(ctx context.Context, id int64) (*property.Property, error) {
	var p property.Property
	if err := c.post(ctx, fmt.Sprintf("/api/listings/%d/score", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// RefreshListing re-fetches market data for a listing and rescores it.
func (c *Client) RefreshListing(ctx context.Context, id int64) (*property.Property, error) {
	var p property.Property
	if err := c.post(ctx, fmt.Sprintf("/api/listings/%d/refresh", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// RescoreAll rescores every listing (admin).
func (c *Client) RescoreAll(ctx context.Context) (*property.RescoreSummary, error) {
	var summary property.RescoreSummary
	if err := c.post(ctx, "/api/listings/rescore", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SubmitVerification asks an admin to verify a listing.
func (c *Client) SubmitVerification(ctx context.Context, listingID int64, notes string) (*verification.Request, error) {
	var req verification.Request
	body := map[string]string{"notes": notes}
	if err := c.post(ctx, fmt.Sprintf("/api/listings/%d/verifications", listingID), body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListVerifications returns a listing's verification requests.
func (c *Client) ListVerifications(ctx context.Context, listingID int64) ([]*verification.Request, error) {
	var reqs []*verification.Request
	if err := c.get(ctx, fmt.Sprintf("/api/listings/%d/verifications", listingID), &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// PendingVerifications returns the open review queue (admin).
func (c *Client) PendingVerifications(ctx context.Context) ([]*verification.PendingRequest, error) {
	var pending []*verification.PendingRequest
	if err := c.get(ctx, "/api/verifications", &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// ResolveVerification approves or rejects a request (admin).
func (c *Client) ResolveVerification(ctx context.Context, id int64, decision verification.Decision, note string) (*verification.Request, error) {
	body := map[string]string{"decision": string(decision), "note": note}
	var req verification.Request
	if err := c.post(ctx, fmt.Sprintf("/api/verifications/%d/resolve", id), body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// SaveAnalysis stores an analysis (pro).
func (c *Client) SaveAnalysis(ctx context.Context, req analysis.SaveRequest) (*analysis.Analysis, error) {
	var a analysis.Analysis
	if err := c.post(ctx, "/api/analyses", req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAnalyses returns the caller's analyses, newest first.
func (c *Client) ListAnalyses(ctx context.Context, listingID *int64) ([]*analysis.Analysis, error) {
	path := "/api/analyses"
	if listingID != nil {
		path += "?listing_id=" + strconv.FormatInt(*listingID, 10)
	}
	var list []*analysis.Analysis
	if err := c.get(ctx, path, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetAnalysis returns one of the caller's analyses.
func (c *Client) GetAnalysis(ctx context.Context, id string) (*analysis.Analysis, error) {
	var a analysis.Analysis
	if err := c.get(ctx, "/api/analyses/"+url.PathEscape(id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// DeleteAnalysis removes one of the caller's analyses.
func (c *Client) DeleteAnalysis(ctx context.Context, id string) error {
	return c.doDelete(ctx, "/api/analyses/"+url.PathEscape(id))
}

// ReportRequest specifies which listings to email.
type ReportRequest struct {
	To         []string `json:"to,omitempty"`
	ListingIDs []int64  `json:"listing_ids,omitempty"`
	MinScore   *int     `json:"min_score,omitempty"`
	Grade      string   `json:"grade,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	DryRun     bool     `json:"dry_run"`
}

// ReportResponse is the response from POST /api/reports/email.
type ReportResponse struct {
	Sent     bool     `json:"sent"`
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	Listings int      `json:"listings"`
}

// EmailReport emails a deal report, or previews it when DryRun is set.
func (c *Client) EmailReport(ctx context.Context, req ReportRequest) (*ReportResponse, error) {
	var resp ReportResponse
	if err := c.post(ctx, "/api/reports/email", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListUsers returns all authorized users (admin).
func (c *Client) ListUsers(ctx context.Context) ([]*auth.User, error) {
	var users []*auth.User
	if err := c.get(ctx, "/api/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddUser authorizes a new user (admin). An empty tier means free.
func (c *Client) AddUser(ctx context.Context, email, name string, tier auth.Tier) (*auth.User, error) {
	body := map[string]string{"email": email, "name": name, "tier": string(tier)}
	var u auth.User
	if err := c.post(ctx, "/api/users", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetTier changes a user's tier (admin).
func (c *Client) SetTier(ctx context.Context, id int64, tier auth.Tier) (*auth.User, error) {
	var u auth.User
	if err := c.put(ctx, fmt.Sprintf("/api/users/%d/tier", id), map[string]string{"tier": string(tier)}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser revokes a user's access (admin).
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.doDelete(ctx, fmt.Sprintf("/api/users/%d", id))
}

// RequestLogin asks the server to email a one-time CLI login code.
func (c *Client) RequestLogin(ctx context.Context, email string) error {
	return c.post(ctx, "/auth/login", map[string]any{"email": email, "cli": true}, nil)
}

// KeyResponse carries a newly issued API key. Key is only shown once.
type KeyResponse struct {
	Key    string       `json:"key"`
	APIKey *auth.APIKey `json:"api_key"`
}

// CLIExchange trades a login code for a new API key.
func (c *Client) CLIExchange(ctx context.Context, token, name string) (*KeyResponse, error) {
	var resp KeyResponse
	body := map[string]string{"token": token, "name": name}
	if err := c.post(ctx, "/auth/cli/exchange", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.send(ctx, http.MethodGet, path, nil, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.send(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.send(ctx, http.MethodPut, path, body, result)
}

// doDelete performs a DELETE request.
func (c *Client) doDelete(ctx context.Context, path string) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) send(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshaling request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return eris.Wrap(err, "creating request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "request failed")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			zap.L().Warn("closing response body", zap.Error(cerr))
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "reading response")
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "server error: " + http.StatusText(resp.StatusCode)}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return eris.Wrap(err, "decoding response")
		}
	}

	return nil
}
