package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "creates new database",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "arb.db")
			},
		},
		{
			name: "creates nested directories",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b", "arb.db")
			},
		},
		{
			name: "opens existing database",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "arb.db")
				d, err := Open(path)
				require.NoError(t, err)
				require.NoError(t, d.Close())
				return path
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			d, err := Open(path)
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, d.Close()) })

			_, err = os.Stat(path)
			assert.NoError(t, err, "database file was not created")
		})
	}
}

func TestPragmas(t *testing.T) {
	d := openTestDB(t)

	var mode string
	require.NoError(t, d.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, d.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		table string
		cols  []string
	}{
		{
			table: "listings",
			cols: []string{
				"id", "address", "city", "state", "monthly_rent", "beds", "baths",
				"str_rate", "walkability", "distance_km", "nearby_str_count", "regulation_risk", "seasonal_variance",
				"status", "lead_score", "lead_grade", "score_json", "scored_at", "market_json", "created_by",
				"created_at", "updated_at", "notes",
			},
		},
		{
			table: "verification_requests",
			cols:  []string{"id", "listing_id", "requested_by", "notes", "status", "reviewer", "review_note", "created_at", "resolved_at"},
		},
		{
			table: "analyses",
			cols: []string{
				"id", "listing_id", "owner", "adr", "occupancy", "expense_rate", "monthly_rent",
				"monthly_revenue", "annual_revenue", "roi_score", "inputs_json", "results_json", "created_at",
			},
		},
		{table: "auth_tokens", cols: []string{"id", "token", "email", "expires_at", "used", "created_at"}},
		{table: "sessions", cols: []string{"id", "email", "expires_at", "created_at"}},
		{table: "passkey_credentials", cols: []string{"id", "email", "name", "credential_json", "created_at"}},
		{table: "api_keys", cols: []string{"id", "name", "email", "key_prefix", "key_hash", "created_at", "last_used_at"}},
		{table: "users", cols: []string{"id", "email", "name", "tier", "created_at", "phone"}},
	}

	d := openTestDB(t)

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.cols, tableColumns(t, d, tt.table))
		})
	}
}

func TestListingConstraints(t *testing.T) {
	d := openTestDB(t)

	insert := `INSERT INTO listings (address, city, monthly_rent, beds, baths, walkability, regulation_risk, status)
		VALUES (?, 'Austin', ?, 2, 1, ?, ?, ?)`

	tests := []struct {
		name        string
		rent        float64
		walkability any
		regulation  any
		status      string
		wantErr     bool
	}{
		{"valid with nulls", 1800, nil, nil, "unverified", false},
		{"valid with facts", 1800, 72.0, "low", "pending", false},
		{"zero rent", 0, nil, nil, "unverified", true},
		{"walkability over 100", 1800, 140.0, nil, "unverified", true},
		{"unknown regulation", 1800, nil, "banned", "unverified", true},
		{"unknown status", 1800, nil, nil, "archived", true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Exec(insert, fmt.Sprintf("%d Test St", i), tt.rent, tt.walkability, tt.regulation, tt.status)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCascadeDelete(t *testing.T) {
	d := openTestDB(t)

	res, err := d.Exec(
		`INSERT INTO listings (address, city, monthly_rent, beds, baths) VALUES (?, ?, ?, ?, ?)`,
		"123 Test St", "Austin", 2000, 2, 2,
	)
	require.NoError(t, err)
	listingID, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = d.Exec(`INSERT INTO verification_requests (listing_id, requested_by) VALUES (?, ?)`, listingID, "op@example.com")
	require.NoError(t, err)
	_, err = d.Exec(
		`INSERT INTO analyses (id, listing_id, owner, adr, occupancy, expense_rate, monthly_revenue, annual_revenue, roi_score)
		 VALUES ('a1', ?, 'op@example.com', 150, 0.7, 0.3, 3150, 37800, 10.25)`, listingID)
	require.NoError(t, err)

	_, err = d.Exec(`DELETE FROM listings WHERE id = ?`, listingID)
	require.NoError(t, err)

	var count int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM verification_requests WHERE listing_id = ?`, listingID).Scan(&count))
	assert.Equal(t, 0, count, "verification requests should cascade")

	var linked sql.NullInt64
	require.NoError(t, d.QueryRow(`SELECT listing_id FROM analyses WHERE id = 'a1'`).Scan(&linked))
	assert.False(t, linked.Valid, "analysis should survive with listing_id cleared")
}

func TestOneOpenVerificationPerListing(t *testing.T) {
	d := openTestDB(t)

	res, err := d.Exec(`INSERT INTO listings (address, city, monthly_rent, beds, baths) VALUES ('1 A St', 'Austin', 1500, 1, 1)`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	_, err = d.Exec(`INSERT INTO verification_requests (listing_id, requested_by) VALUES (?, 'a@example.com')`, id)
	require.NoError(t, err)
	_, err = d.Exec(`INSERT INTO verification_requests (listing_id, requested_by) VALUES (?, 'b@example.com')`, id)
	assert.Error(t, err)

	_, err = d.Exec(`UPDATE verification_requests SET status = 'rejected' WHERE listing_id = ?`, id)
	require.NoError(t, err)
	_, err = d.Exec(`INSERT INTO verification_requests (listing_id, requested_by) VALUES (?, 'b@example.com')`, id)
	assert.NoError(t, err)
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arb.db")

	d1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, d1.Close())

	d2, err := Open(path)
	require.NoError(t, err, "second open should not fail")
	require.NoError(t, d2.Close())
}

// openTestDB creates a temporary database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "arb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })
	return d
}

// tableColumns returns column names for a table using PRAGMA table_info.
func tableColumns(t *testing.T, d *sql.DB, table string) []string {
	t.Helper()
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	require.NoError(t, err)
	defer func() { assert.NoError(t, rows.Close()) }()

	var cols []string
	for rows.Next() {
		var cid, notnull, pk int
		var name, typ string
		var dflt *string
		require.NoError(t, rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	return cols
}
