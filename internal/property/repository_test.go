package property

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/rental-arb/internal/db"
	"github.com/evcraddock/rental-arb/internal/deal"
)

func ptr[T any](v T) *T { return &v }

func TestInsertAndGetByID(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	p := &Property{
		Address:        "123 Main St",
		City:           "Austin",
		State:          "TX",
		MonthlyRent:    2000,
		Beds:           2,
		Baths:          2,
		Walkability:    ptr(72.0),
		NearbySTRCount: ptr(14),
		RegulationRisk: ptr(deal.RegulationLow),
		MarketRaw:      json.RawMessage(`{"walk_score": 72}`),
		CreatedBy:      "op@example.com",
	}
	score := deal.Score(p.Facts())

	saved, err := repo.Insert(ctx, p, score)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, StatusUnverified, saved.Status)

	got, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "123 Main St", got.Address)
	assert.Equal(t, 2000.0, got.MonthlyRent)
	assert.Equal(t, 72.0, *got.Walkability)
	assert.Equal(t, 14, *got.NearbySTRCount)
	assert.Equal(t, deal.RegulationLow, *got.RegulationRisk)
	assert.Nil(t, got.STRRate)
	assert.Nil(t, got.DistanceKm)
	assert.Equal(t, "op@example.com", got.CreatedBy)
	assert.JSONEq(t, `{"walk_score": 72}`, string(got.MarketRaw))

	require.NotNil(t, got.LeadScore)
	assert.Equal(t, score.TotalScore, *got.LeadScore)
	assert.Equal(t, score.Grade, *got.LeadGrade)
	require.NotNil(t, got.Score)
	assert.Equal(t, score.Breakdown.SpreadAmount, got.Score.Breakdown.SpreadAmount)
	assert.NotNil(t, got.ScoredAt)
}

func TestInsertDuplicate(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	p := &Property{Address: "1 Dup Ln", City: "Austin", State: "TX", MonthlyRent: 1500, Beds: 1, Baths: 1}
	_, err := repo.Insert(ctx, p, deal.Score(p.Facts()))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, p, deal.Score(p.Facts()))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDuplicate))
}

func TestGetByIDNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.GetByID(context.Background(), 9999)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestList(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	// strong Austin lead, weak Omaha lead, middling Austin lead
	strong := insertTest(t, repo, &Property{Address: "1 A St", City: "Austin", State: "TX", MonthlyRent: 1000, Beds: 3, Baths: 2,
		Walkability: ptr(95.0), DistanceKm: ptr(1.0), NearbySTRCount: ptr(5), RegulationRisk: ptr(deal.RegulationLow)})
	weak := insertTest(t, repo, &Property{Address: "2 B St", City: "Omaha", State: "NE", MonthlyRent: 4000, Beds: 1, Baths: 1,
		NearbySTRCount: ptr(80), RegulationRisk: ptr(deal.RegulationHigh)})
	mid := insertTest(t, repo, &Property{Address: "3 C St", City: "austin", State: "TX", MonthlyRent: 2000, Beds: 2, Baths: 2})

	all, err := repo.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{strong.ID, mid.ID, weak.ID}, ids(all))

	austin, err := repo.List(ctx, ListOptions{City: "AUSTIN"})
	require.NoError(t, err)
	assert.Equal(t, []int64{strong.ID, mid.ID}, ids(austin))

	minScore := *mid.LeadScore
	good, err := repo.List(ctx, ListOptions{MinScore: &minScore})
	require.NoError(t, err)
	assert.Equal(t, []int64{strong.ID, mid.ID}, ids(good))

	graded, err := repo.List(ctx, ListOptions{Grade: *weak.LeadGrade})
	require.NoError(t, err)
	assert.Contains(t, ids(graded), weak.ID)

	limited, err := repo.List(ctx, ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []int64{strong.ID}, ids(limited))

	require.NoError(t, repo.UpdateStatus(ctx, weak.ID, StatusPending))
	pending, err := repo.List(ctx, ListOptions{Status: StatusPending})
	require.NoError(t, err)
	assert.Equal(t, []int64{weak.ID}, ids(pending))
}

func TestUpdateStatus(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	p := insertTest(t, repo, &Property{Address: "1 S St", City: "Denver", MonthlyRent: 1800, Beds: 2, Baths: 1})

	tests := []struct {
		name    string
		id      int64
		status  Status
		wantErr bool
	}{
		{"pending", p.ID, StatusPending, false},
		{"verified", p.ID, StatusVerified, false},
		{"invalid status", p.ID, Status("archived"), true},
		{"missing listing", 9999, StatusVerified, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.UpdateStatus(ctx, tt.id, tt.status)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			got, err := repo.GetByID(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
		})
	}
}

func TestUpdateFactsAndSaveScore(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	p := insertTest(t, repo, &Property{Address: "1 F St", City: "Omaha", MonthlyRent: 1500, Beds: 2, Baths: 1})

	require.NoError(t, repo.UpdateFacts(ctx, p.ID, MarketFacts{
		STRRate:        ptr(210.0),
		RegulationRisk: ptr(deal.RegulationMedium),
		RawJSON:        json.RawMessage(`{"adr": 210}`),
	}))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 210.0, *got.STRRate)
	assert.Nil(t, got.Walkability)

	score := deal.Score(got.Facts())
	require.NoError(t, repo.SaveScore(ctx, p.ID, score))

	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, score.TotalScore, *got.LeadScore)

	assert.True(t, eris.Is(repo.SaveScore(ctx, 9999, score), ErrNotFound))
	assert.True(t, eris.Is(repo.UpdateFacts(ctx, 9999, MarketFacts{}), ErrNotFound))
}

func TestUpdateNotes(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	p := insertTest(t, repo, &Property{Address: "1 N St", City: "Omaha", MonthlyRent: 1500, Beds: 2, Baths: 1})

	require.NoError(t, repo.UpdateNotes(ctx, p.ID, "landlord ok with subletting"))
	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "landlord ok with subletting", got.Notes)
}

func TestDelete(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	p := insertTest(t, repo, &Property{Address: "1 D St", City: "Omaha", MonthlyRent: 1500, Beds: 2, Baths: 1})

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err := repo.GetByID(ctx, p.ID)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.True(t, eris.Is(repo.Delete(ctx, p.ID), ErrNotFound))
}

func TestIDs(t *testing.T) {
	repo := testRepo(t)
	a := insertTest(t, repo, &Property{Address: "1 I St", City: "Omaha", MonthlyRent: 1500, Beds: 2, Baths: 1})
	b := insertTest(t, repo, &Property{Address: "2 I St", City: "Omaha", MonthlyRent: 1500, Beds: 2, Baths: 1})

	got, err := repo.IDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, got)
}

func TestFacts(t *testing.T) {
	p := &Property{MonthlyRent: 2000, Beds: 2, Baths: 2, City: "Austin", State: "TX", STRRate: ptr(200.0)}
	f := p.Facts()
	assert.Equal(t, 2000.0, f.Rent)
	assert.Equal(t, 200.0, *f.STRRateEstimate)
	assert.Nil(t, f.WalkabilityScore)
}

func insertTest(t *testing.T, repo *Repository, p *Property) *Property {
	t.Helper()
	saved, err := repo.Insert(context.Background(), p, deal.Score(p.Facts()))
	require.NoError(t, err)
	return saved
}

func ids(ps []*Property) []int64 {
	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return d
}

func testRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(testDB(t))
}
