// Package market fetches short-term-rental comparables for a listing.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Query identifies the unit to find comparables for.
type Query struct {
	Address string
	City    string
	State   string
	Beds    int
	Baths   int
}

// Comparables holds market facts for a unit. Nil fields were not reported
// by the provider.
type Comparables struct {
	NightlyRate      *float64        `json:"nightly_rate,omitempty"`
	WalkScore        *float64        `json:"walk_score,omitempty"`
	DowntownKm       *float64        `json:"downtown_km,omitempty"`
	NearbySTRCount   *int            `json:"nearby_str_count,omitempty"`
	RegulationRisk   *string         `json:"regulation_risk,omitempty"`
	SeasonalVariance *float64        `json:"seasonal_variance,omitempty"`
	RawJSON          json.RawMessage `json:"raw_json"`
}

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 1 << 20

// Cache stores comparables between lookups.
type Cache interface {
	Get(ctx context.Context, key string) (*Comparables, bool, error)
	Set(ctx context.Context, key string, c *Comparables) error
	Invalidate(ctx context.Context, key string) error
}

// Options configures a Client.
type Options struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// Client fetches comparables from the market data provider.
type Client struct {
	httpClient *http.Client
	apiKey     string
	limiter    *rate.Limiter
	cache      Cache

	// Overridable for testing.
	baseURL string
}

// NewClient creates a market client. An API key and base URL are required.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, eris.New("market: api key is required (ARB_MARKET_API_KEY)")
	}

	if opts.BaseURL == "" {
		return nil, eris.New("market: base url is required (ARB_MARKET_BASE_URL)")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     opts.APIKey,
		limiter:    rate.NewLimiter(limit, burst),
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
	}, nil
}

// WithCache enables read-through caching of lookups.
func (c *Client) WithCache(cache Cache) *Client {
	c.cache = cache
	return c
}

// CacheKey returns the cache key for a query. Address is not part of the
// key: comparables are shared by every unit of the same shape in a market.
func CacheKey(q Query) string {
	city := strings.ToLower(strings.TrimSpace(q.City))
	state := strings.ToLower(strings.TrimSpace(q.State))
	return fmt.Sprintf("%s:%s:%d:%d", city, state, q.Beds, q.Baths)
}

// Lookup returns comparables for the given unit, from the cache when a
// fresh entry exists.
func (c *Client) Lookup(ctx context.Context, q Query) (*Comparables, error) {
	return c.lookup(ctx, q, true)
}

// Refresh drops any cached entry and fetches comparables from the provider.
func (c *Client) Refresh(ctx context.Context, q Query) (*Comparables, error) {
	if c.cache != nil && strings.TrimSpace(q.City) != "" {
		key := CacheKey(q)
		if err := c.cache.Invalidate(ctx, key); err != nil {
			zap.L().Warn("market cache invalidate failed", zap.String("key", key), zap.Error(err))
		}
	}
	return c.lookup(ctx, q, false)
}

func (c *Client) lookup(ctx context.Context, q Query, useCache bool) (*Comparables, error) {
	if strings.TrimSpace(q.City) == "" {
		return nil, eris.New("market: city is required")
	}

	key := CacheKey(q)
	if c.cache != nil && useCache {
		cached, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("market cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "market: rate limit wait")
	}

	raw, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	comps := parseComparables(raw)

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, comps); err != nil {
			zap.L().Warn("market cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return comps, nil
}

// fetch calls the comparables endpoint and returns the raw response body.
func (c *Client) fetch(ctx context.Context, q Query) (_ json.RawMessage, err error) {
	params := url.Values{
		"city":  {q.City},
		"state": {q.State},
		"beds":  {strconv.Itoa(q.Beds)},
		"baths": {strconv.Itoa(q.Baths)},
	}
	if q.Address != "" {
		params.Set("address", q.Address)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/comparables?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "market: creating request")
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "market: sending request")
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = eris.Wrap(closeErr, "market: closing body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("market: unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "market: reading response")
	}
	if len(raw) > maxResponseBytes {
		return nil, eris.Errorf("market: response larger than %d bytes", maxResponseBytes)
	}

	if !json.Valid(raw) {
		return nil, eris.New("market: response is not valid JSON")
	}

	return json.RawMessage(raw), nil
}
