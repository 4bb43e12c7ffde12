package web

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/rental-arb/internal/deal"
	"github.com/evcraddock/rental-arb/internal/property"
	"github.com/evcraddock/rental-arb/internal/verification"
)

func (e *testEnv) addListing(t *testing.T, token string, body map[string]any) *property.Property {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/listings", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[*property.Property](t, w)
}

func strongListing() map[string]any {
	return map[string]any{
		"address": "12 Rainey St", "city": "Austin", "state": "tx",
		"monthly_rent": 1200, "beds": 2, "baths": 1,
		"str_rate": 150, "walkability": 90, "distance_km": 1,
		"nearby_str_count": 5, "regulation_risk": "low", "seasonal_variance": 10,
	}
}

func weakListing() map[string]any {
	return map[string]any{
		"address": "9 Main St", "city": "Dayton", "state": "OH",
		"monthly_rent": 2500, "beds": 1, "baths": 1,
		"regulation_risk": "high", "nearby_str_count": 80,
	}
}

func TestAddListingScoresOnInsert(t *testing.T) {
	env := newTestEnv(t)

	p := env.addListing(t, env.free, strongListing())
	assert.NotZero(t, p.ID)
	assert.Equal(t, "TX", p.State)
	assert.Equal(t, property.StatusUnverified, p.Status)
	assert.Equal(t, "free@example.com", p.CreatedBy)
	require.NotNil(t, p.LeadScore)
	require.NotNil(t, p.LeadGrade)
	require.NotNil(t, p.Score)
	assert.Equal(t, deal.GradeFor(*p.LeadScore), *p.LeadGrade)
	assert.Equal(t, *p.LeadScore, p.Score.TotalScore)
	assert.False(t, p.Score.Breakdown.STRRateEstimated)
}

func TestAddListingErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
		code int
	}{
		{"missing address", map[string]any{"city": "Austin", "monthly_rent": 1000}, http.StatusBadRequest},
		{"missing city", map[string]any{"address": "1 A St", "monthly_rent": 1000}, http.StatusBadRequest},
		{"zero rent", map[string]any{"address": "1 A St", "city": "Austin"}, http.StatusBadRequest},
		{"bad risk", map[string]any{"address": "1 A St", "city": "Austin", "monthly_rent": 1000, "regulation_risk": "none"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/listings", env.free, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	env.addListing(t, env.free, strongListing())
	w := env.do(t, http.MethodPost, "/api/listings", env.free, strongListing())
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListListingsFilters(t *testing.T) {
	env := newTestEnv(t)
	strong := env.addListing(t, env.free, strongListing())
	weak := env.addListing(t, env.free, weakListing())
	require.Greater(t, *strong.LeadScore, *weak.LeadScore)

	w := env.do(t, http.MethodGet, "/api/listings", env.free, nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]*property.Property](t, w)
	require.Len(t, all, 2)
	assert.Equal(t, strong.ID, all[0].ID, "highest score first")

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/listings?min_score=%d", *strong.LeadScore), env.free, nil)
	filtered := decode[[]*property.Property](t, w)
	require.Len(t, filtered, 1)
	assert.Equal(t, strong.ID, filtered[0].ID)

	w = env.do(t, http.MethodGet, "/api/listings?city=dayton", env.free, nil)
	assert.Len(t, decode[[]*property.Property](t, w), 1)

	w = env.do(t, http.MethodGet, "/api/listings?status=pending", env.free, nil)
	assert.Equal(t, "[]\n", w.Body.String())

	w = env.do(t, http.MethodGet, "/api/listings?limit=1", env.free, nil)
	assert.Len(t, decode[[]*property.Property](t, w), 1)
}

func TestListListingsBadQuery(t *testing.T) {
	env := newTestEnv(t)

	for _, q := range []string{"min_score=101", "min_score=abc", "grade=E", "status=sold", "limit=-1"} {
		w := env.do(t, http.MethodGet, "/api/listings?"+q, env.free, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestGetListing(t *testing.T) {
	env := newTestEnv(t)
	p := env.addListing(t, env.free, strongListing())

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/listings/%d", p.ID), env.free, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"verifications":[]`)
	assert.Contains(t, w.Body.String(), `"address":"12 Rainey St"`)

	w = env.do(t, http.MethodGet, "/api/listings/999", env.free, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/listings/abc", env.free, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid listing ID", errorOf(t, w))
}

func TestUpdateNotesAndDelete(t *testing.T) {
	env := newTestEnv(t)
	p := env.addListing(t, env.free, strongListing())
	path := fmt.Sprintf("/api/listings/%d", p.ID)

	w := env.do(t, http.MethodPut, path+"/notes", env.free, map[string]string{"notes": "  call landlord  "})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, path, env.free, nil)
	assert.Contains(t, w.Body.String(), `"notes":"call landlord"`)

	w = env.do(t, http.MethodDelete, path, env.free, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, path, env.free, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRescoreListing(t *testing.T) {
	env := newTestEnv(t)
	p := env.addListing(t, env.free, strongListing())

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/listings/%d/score", p.ID), env.free, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rescored := decode[*property.Property](t, w)
	assert.Equal(t, *p.LeadScore, *rescored.LeadScore)
}

func TestRefreshWithoutMarket(t *testing.T) {
	env := newTestEnv(t)
	p := env.addListing(t, env.free, strongListing())

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/listings/%d/refresh", p.ID), env.free, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRescoreAllIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.addListing(t, env.free, strongListing())
	env.addListing(t, env.free, weakListing())

	w := env.do(t, http.MethodPost, "/api/listings/rescore", env.pro, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/listings/rescore", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[property.RescoreSummary](t, w)
	assert.Equal(t, property.RescoreSummary{Total: 2, Scored: 2}, summary)
}

func TestVerificationFlow(t *testing.T) {
	env := newTestEnv(t)
	p := env.addListing(t, env.free, strongListing())
	listingPath := fmt.Sprintf("/api/listings/%d", p.ID)

	w := env.do(t, http.MethodPost, listingPath+"/verifications", env.free, map[string]string{"notes": "saw it in person"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	req := decode[*verification.Request](t, w)
	assert.Equal(t, verification.StatusOpen, req.Status)
	assert.Equal(t, "free@example.com", req.RequestedBy)

	w = env.do(t, http.MethodPost, listingPath+"/verifications", env.pro, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, listingPath, env.free, nil)
	assert.Equal(t, property.StatusPending, decode[*property.Property](t, w).Status)

	// non-admins cannot see or resolve the queue
	w = env.do(t, http.MethodGet, "/api/verifications", env.pro, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/verifications", env.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[[]*verification.PendingRequest](t, w)
	require.Len(t, pending, 1)
	assert.Equal(t, "12 Rainey St", pending[0].Address)

	resolvePath := fmt.Sprintf("/api/verifications/%d/resolve", req.ID)
	w = env.do(t, http.MethodPost, resolvePath, env.admin, map[string]string{"decision": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, resolvePath, env.admin, map[string]string{"decision": "approve", "note": "lease checked"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resolved := decode[*verification.Request](t, w)
	assert.Equal(t, verification.StatusApproved, resolved.Status)
	assert.Equal(t, adminEmail, resolved.Reviewer)

	w = env.do(t, http.MethodPost, resolvePath, env.admin, map[string]string{"decision": "reject"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, listingPath, env.free, nil)
	assert.Equal(t, property.StatusVerified, decode[*property.Property](t, w).Status)

	w = env.do(t, http.MethodGet, listingPath+"/verifications", env.free, nil)
	assert.Len(t, decode[[]*verification.Request](t, w), 1)
}

func TestSubmitVerificationMissingListing(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/listings/42/verifications", env.free, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
