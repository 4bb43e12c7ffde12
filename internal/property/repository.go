package property

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"github.com/evcraddock/rental-arb/internal/deal"
)

// Repository provides CRUD operations for listings.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a listing repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO listings
	(address, city, state, monthly_rent, beds, baths, notes,
	 str_rate, walkability, distance_km, nearby_str_count, regulation_risk, seasonal_variance,
	 lead_score, lead_grade, score_json, scored_at, market_json, created_by)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?, ?)`

const selectColumns = `id, address, city, state, monthly_rent, beds, baths, notes,
	str_rate, walkability, distance_km, nearby_str_count, regulation_risk, seasonal_variance,
	status, lead_score, lead_grade, score_json, scored_at,
	market_json, created_by, created_at, updated_at`

// Insert adds a new listing with its score and returns it with its
// generated ID.
func (r *Repository) Insert(ctx context.Context, p *Property, score deal.LeadScore) (*Property, error) {
	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return nil, eris.Wrap(err, "encoding score")
	}

	market := "{}"
	if len(p.MarketRaw) > 0 {
		market = string(p.MarketRaw)
	}

	result, err := r.db.ExecContext(ctx, insertSQL,
		p.Address, p.City, p.State, p.MonthlyRent, p.Beds, p.Baths, p.Notes,
		p.STRRate, p.Walkability, p.DistanceKm, p.NearbySTRCount, regulationArg(p.RegulationRisk), p.SeasonalVariance,
		score.TotalScore, string(score.Grade), string(scoreJSON), market, p.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicate, "%s, %s %s", p.Address, p.City, p.State)
		}
		return nil, eris.Wrap(err, "inserting listing")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "getting insert id")
	}

	return r.GetByID(ctx, id)
}

// GetByID returns a listing by its ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Property, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE id = ?", selectColumns)
	row := r.db.QueryRowContext(ctx, query, id)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "listing %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "querying listing %d", id)
	}

	return p, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	MinScore *int
	Grade    deal.Grade // empty = all
	City     string     // case-insensitive, empty = all
	Status   Status     // empty = all
	Limit    int        // 0 = no limit
}

// List returns listings, best score first, optionally filtered.
func (r *Repository) List(ctx context.Context, opts ListOptions) (_ []*Property, err error) {
	query := fmt.Sprintf("SELECT %s FROM listings", selectColumns)
	var args []any
	var conditions []string

	if opts.MinScore != nil {
		conditions = append(conditions, "lead_score >= ?")
		args = append(args, *opts.MinScore)
	}
	if opts.Grade != "" {
		conditions = append(conditions, "lead_grade = ?")
		args = append(args, string(opts.Grade))
	}
	if opts.City != "" {
		conditions = append(conditions, "LOWER(city) = LOWER(?)")
		args = append(args, opts.City)
	}
	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(opts.Status))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY COALESCE(lead_score, -1) DESC, created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "listing listings")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = eris.Wrap(closeErr, "closing rows")
		}
	}()

	var listings []*Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scanning listing")
		}
		listings = append(listings, p)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterating listings")
	}

	return listings, nil
}

// IDs returns every listing ID in insertion order.
func (r *Repository) IDs(ctx context.Context) (_ []int64, err error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM listings ORDER BY id")
	if err != nil {
		return nil, eris.Wrap(err, "listing ids")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = eris.Wrap(closeErr, "closing rows")
		}
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "scanning id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarketFacts are the provider-sourced fields of a listing.
type MarketFacts struct {
	STRRate          *float64
	Walkability      *float64
	DistanceKm       *float64
	NearbySTRCount   *int
	RegulationRisk   *deal.RegulationRisk
	SeasonalVariance *float64
	RawJSON          json.RawMessage
}

// UpdateFacts replaces the market facts of a listing.
func (r *Repository) UpdateFacts(ctx context.Context, id int64, f MarketFacts) error {
	raw := "{}"
	if len(f.RawJSON) > 0 {
		raw = string(f.RawJSON)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE listings SET str_rate = ?, walkability = ?, distance_km = ?, nearby_str_count = ?,
			regulation_risk = ?, seasonal_variance = ?, market_json = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		f.STRRate, f.Walkability, f.DistanceKm, f.NearbySTRCount,
		regulationArg(f.RegulationRisk), f.SeasonalVariance, raw, id,
	)
	if err != nil {
		return eris.Wrap(err, "updating market facts")
	}
	return requireAffected(result, id)
}

// SaveScore stores a freshly computed lead score.
func (r *Repository) SaveScore(ctx context.Context, id int64, score deal.LeadScore) error {
	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return eris.Wrap(err, "encoding score")
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE listings SET lead_score = ?, lead_grade = ?, score_json = ?, scored_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		score.TotalScore, string(score.Grade), string(scoreJSON), id,
	)
	if err != nil {
		return eris.Wrap(err, "saving score")
	}
	return requireAffected(result, id)
}

// UpdateStatus sets the verification status of a listing.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if !ValidStatus(string(status)) {
		return eris.Errorf("invalid listing status: %s", status)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE listings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(status), id,
	)
	if err != nil {
		return eris.Wrap(err, "updating status")
	}
	return requireAffected(result, id)
}

// UpdateNotes replaces the free-form notes on a listing.
func (r *Repository) UpdateNotes(ctx context.Context, id int64, notes string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE listings SET notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		notes, id,
	)
	if err != nil {
		return eris.Wrap(err, "updating notes")
	}
	return requireAffected(result, id)
}

// Delete removes a listing by ID. Verification requests cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return eris.Wrap(err, "deleting listing")
	}
	return requireAffected(result, id)
}

func requireAffected(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "checking rows affected")
	}
	if rows == 0 {
		return eris.Wrapf(ErrNotFound, "listing %d", id)
	}
	return nil
}

func regulationArg(r *deal.RegulationRisk) any {
	if r == nil {
		return nil
	}
	return string(*r)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
