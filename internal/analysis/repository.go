package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/evcraddock/rental-arb/internal/deal"
)

// Repository provides storage for analyses.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an analysis repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const columns = `id, listing_id, owner, adr, occupancy, expense_rate, monthly_rent,
	monthly_revenue, annual_revenue, roi_score, inputs_json, results_json, created_at`

// Insert stores an analysis.
func (r *Repository) Insert(ctx context.Context, a *Analysis) error {
	inputs, err := marshalOptional(a.Inputs)
	if err != nil {
		return eris.Wrap(err, "encoding inputs")
	}
	results, err := marshalOptional(a.Results)
	if err != nil {
		return eris.Wrap(err, "encoding results")
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO analyses (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ListingID, a.Owner, a.ADR, a.OccupancyFraction, a.ExpenseRateFraction, a.MonthlyRent,
		a.MonthlyRevenue, a.AnnualRevenue, a.ROIScore, inputs, results, a.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "inserting analysis")
	}
	return nil
}

// GetByID returns an analysis by ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Analysis, error) {
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, "SELECT "+columns+" FROM analyses WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "analysis %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "querying analysis %s", id)
	}
	return a, nil
}

// ListByOwner returns an owner's analyses, newest first. A non-nil
// listingID narrows to one listing.
func (r *Repository) ListByOwner(ctx context.Context, owner string, listingID *int64) (_ []*Analysis, err error) {
	query := "SELECT " + columns + " FROM analyses WHERE owner = ?"
	args := []any{owner}
	if listingID != nil {
		query += " AND listing_id = ?"
		args = append(args, *listingID)
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "listing analyses")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = eris.Wrap(closeErr, "closing rows")
		}
	}()

	var out []*Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scanning analysis")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterating analyses")
	}
	return out, nil
}

// Delete removes an owner's analysis.
func (r *Repository) Delete(ctx context.Context, id, owner string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = ? AND owner = ?", id, owner)
	if err != nil {
		return eris.Wrap(err, "deleting analysis")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "checking rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "analysis %s", id)
	}
	return nil
}

func scanAnalysis(row interface{ Scan(...any) error }) (*Analysis, error) {
	var a Analysis
	var listingID sql.NullInt64
	var inputs, results sql.NullString

	if err := row.Scan(
		&a.ID, &listingID, &a.Owner, &a.ADR, &a.OccupancyFraction, &a.ExpenseRateFraction, &a.MonthlyRent,
		&a.MonthlyRevenue, &a.AnnualRevenue, &a.ROIScore, &inputs, &results, &a.CreatedAt,
	); err != nil {
		return nil, err
	}

	if listingID.Valid {
		a.ListingID = &listingID.Int64
	}
	if inputs.Valid {
		var in deal.RoiInputs
		if err := json.Unmarshal([]byte(inputs.String), &in); err != nil {
			return nil, eris.Wrap(err, "decoding inputs")
		}
		a.Inputs = &in
	}
	if results.Valid {
		var res deal.RoiResults
		if err := json.Unmarshal([]byte(results.String), &res); err != nil {
			return nil, eris.Wrap(err, "decoding results")
		}
		a.Results = &res
	}
	return &a, nil
}

func marshalOptional(v any) (any, error) {
	switch t := v.(type) {
	case *deal.RoiInputs:
		if t == nil {
			return nil, nil
		}
	case *deal.RoiResults:
		if t == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
