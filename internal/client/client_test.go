package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/rental-arb/internal/analysis"
	"github.com/evcraddock/rental-arb/internal/deal"
	"github.com/evcraddock/rental-arb/internal/property"
	"github.com/evcraddock/rental-arb/internal/verification"
)

func respondJSON(t *testing.T, w http.ResponseWriter, code int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestListListings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/listings", r.URL.Path)
		assert.Equal(t, "Bearer testkey", r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.RawQuery)
		respondJSON(t, w, http.StatusOK, []*property.Property{{ID: 1, Address: "123 Test"}})
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	listings, err := c.ListListings(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "123 Test", listings[0].Address)
}

func TestListListingsFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "70", q.Get("min_score"))
		assert.Equal(t, "A+", q.Get("grade"))
		assert.Equal(t, "Austin", q.Get("city"))
		assert.Equal(t, "verified", q.Get("status"))
		assert.Equal(t, "5", q.Get("limit"))
		respondJSON(t, w, http.StatusOK, []*property.Property{})
	}))
	defer srv.Close()

	min := 70
	c := New(srv.URL, "testkey")
	_, err := c.ListListings(context.Background(), ListOptions{
		MinScore: &min, Grade: "A+", City: "Austin", Status: "verified", Limit: 5,
	})
	require.NoError(t, err)
}

func TestGetListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/listings/42", r.URL.Path)
		respondJSON(t, w, http.StatusOK, map[string]any{
			"id":            42,
			"address":       "42 Elm St",
			"status":        "pending",
			"verifications": []map[string]any{{"id": 7, "listing_id": 42, "status": "open"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	detail, err := c.GetListing(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), detail.ID)
	assert.Equal(t, property.StatusPending, detail.Status)
	require.Len(t, detail.Verifications, 1)
	assert.Equal(t, verification.StatusOpen, detail.Verifications[0].Status)
}

func TestAddListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body := readBody(t, r)
		assert.Equal(t, "1 Main St", body["address"])
		assert.Equal(t, 1500.0, body["monthly_rent"])
		assert.NotContains(t, body, "created_by")
		respondJSON(t, w, http.StatusCreated, property.Property{ID: 3, Address: "1 Main St"})
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	p, err := c.AddListing(context.Background(), property.NewProperty{
		Address: "1 Main St", City: "Austin", MonthlyRent: 1500, CreatedBy: "ignored@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.ID)
}

func TestUpdateNotesUsesPut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/listings/9/notes", r.URL.Path)
		assert.Equal(t, "ask about parking", readBody(t, r)["notes"])
		respondJSON(t, w, http.StatusOK, map[string]any{"id": 9})
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	require.NoError(t, c.UpdateNotes(context.Background(), 9, "ask about parking"))
}

func TestDeleteListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/listings/5", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	require.NoError(t, c.DeleteListing(context.Background(), 5))
}

func TestROI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/roi", r.URL.Path)
		var in deal.RoiInputs
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		respondJSON(t, w, http.StatusOK, ROIResponse{Inputs: in, Results: deal.Compute(in)})
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	resp, err := c.ROI(context.Background(), deal.DefaultRoiInputs())
	require.NoError(t, err)
	assert.InDelta(t, 700.5, resp.Results.NetProfit, 1e-9)
	require.NotNil(t, resp.Results.PaybackPeriodMonths)
}

func TestListAnalysesByListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12", r.URL.Query().Get("listing_id"))
		respondJSON(t, w, http.StatusOK, []*analysis.Analysis{{ID: "abc"}})
	}))
	defer srv.Close()

	id := int64(12)
	c := New(srv.URL, "testkey")
	list, err := c.ListAnalyses(context.Background(), &id)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "abc", list[0].ID)
}

func TestResolveVerification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/verifications/4/resolve", r.URL.Path)
		body := readBody(t, r)
		assert.Equal(t, "reject", body["decision"])
		assert.Equal(t, "lease forbids subletting", body["note"])
		respondJSON(t, w, http.StatusOK, verification.Request{ID: 4, Status: verification.StatusRejected})
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	req, err := c.ResolveVerification(context.Background(), 4, verification.Reject, "lease forbids subletting")
	require.NoError(t, err)
	assert.Equal(t, verification.StatusRejected, req.Status)
}

func TestCLILoginFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		body := readBody(t, r)
		switch r.URL.Path {
		case "/auth/login":
			assert.Equal(t, "me@example.com", body["email"])
			assert.Equal(t, true, body["cli"])
			respondJSON(t, w, http.StatusAccepted, map[string]string{"message": "sent"})
		case "/auth/cli/exchange":
			assert.Equal(t, "code123", body["token"])
			respondJSON(t, w, http.StatusCreated, map[string]any{
				"key":     "arb_secret",
				"api_key": map[string]any{"id": 1, "name": "laptop"},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	ctx := context.Background()
	require.NoError(t, c.RequestLogin(ctx, "me@example.com"))

	resp, err := c.CLIExchange(ctx, "code123", "laptop")
	require.NoError(t, err)
	assert.Equal(t, "arb_secret", resp.Key)
	assert.Equal(t, "laptop", resp.APIKey.Name)
}

func TestErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(t, w, http.StatusNotFound, map[string]string{"error": "listing not found"})
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	_, err := c.GetListing(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, "listing not found", err.Error())
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestErrorResponseWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "testkey")
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, "server error: Bad Gateway", err.Error())
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
}

func TestStatusCodeOfTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", "testkey")
	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Zero(t, StatusCode(err))
}
