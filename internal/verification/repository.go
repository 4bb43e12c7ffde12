package verification

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Repository provides storage for verification requests. Listing status is
// kept in step with the request inside the same transaction.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a verification repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const requestColumns = `id, listing_id, requested_by, notes, status, reviewer, review_note, created_at, resolved_at`

// Submit opens a request for a listing and marks the listing pending.
func (r *Repository) Submit(ctx context.Context, listingID int64, requestedBy, notes string) (*Request, error) {
	requestedBy = strings.TrimSpace(requestedBy)
	if requestedBy == "" {
		return nil, eris.New("requester email is required")
	}

	var req *Request
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE listings SET status = 'pending', updated_at = CURRENT_TIMESTAMP WHERE id = ?", listingID)
		if err != nil {
			return eris.Wrap(err, "marking listing pending")
		}
		if n, err := res.RowsAffected(); err != nil {
			return eris.Wrap(err, "checking rows affected")
		} else if n == 0 {
			return eris.Wrapf(ErrListingNotFound, "listing %d", listingID)
		}

		result, err := tx.ExecContext(ctx,
			"INSERT INTO verification_requests (listing_id, requested_by, notes) VALUES (?, ?, ?)",
			listingID, requestedBy, notes,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return eris.Wrapf(ErrAlreadyPending, "listing %d", listingID)
			}
			return eris.Wrap(err, "inserting verification request")
		}

		id, err := result.LastInsertId()
		if err != nil {
			return eris.Wrap(err, "getting insert id")
		}

		req, err = scanRequest(tx.QueryRowContext(ctx,
			"SELECT "+requestColumns+" FROM verification_requests WHERE id = ?", id))
		if err != nil {
			return eris.Wrap(err, "reading back request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// GetByID returns a request by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Request, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM verification_requests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "request %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "querying request %d", id)
	}
	return req, nil
}

// ListByListingID returns all requests for a listing, newest first.
func (r *Repository) ListByListingID(ctx context.Context, listingID int64) (_ []*Request, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+requestColumns+" FROM verification_requests WHERE listing_id = ? ORDER BY id DESC",
		listingID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "listing requests")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = eris.Wrap(closeErr, "closing rows")
		}
	}()

	var requests []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scanning request")
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterating requests")
	}

	return requests, nil
}

// ListPending returns every open request, oldest first.
func (r *Repository) ListPending(ctx context.Context) (_ []*PendingRequest, err error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		v.id, v.listing_id, v.requested_by, v.notes, v.status, v.reviewer, v.review_note, v.created_at, v.resolved_at,
		l.address, l.city, l.state
		FROM verification_requests v JOIN listings l ON l.id = v.listing_id
		WHERE v.status = 'open'
		ORDER BY v.created_at ASC, v.id ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "listing pending requests")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = eris.Wrap(closeErr, "closing rows")
		}
	}()

	var pending []*PendingRequest
	for rows.Next() {
		var p PendingRequest
		var resolvedAt sql.NullTime
		var status string
		if err := rows.Scan(
			&p.ID, &p.ListingID, &p.RequestedBy, &p.Notes, &status, &p.Reviewer, &p.ReviewNote,
			&p.CreatedAt, &resolvedAt, &p.Address, &p.City, &p.State,
		); err != nil {
			return nil, eris.Wrap(err, "scanning pending request")
		}
		p.Status = Status(status)
		pending = append(pending, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterating pending requests")
	}

	return pending, nil
}

// Resolve closes an open request and moves the listing to verified or
// rejected.
func (r *Repository) Resolve(ctx context.Context, id int64, decision Decision, reviewer, note string) (*Request, error) {
	if !decision.IsValid() {
		return nil, eris.Errorf("invalid decision: %q", decision)
	}

	reqStatus, listingStatus := StatusApproved, "verified"
	if decision == Reject {
		reqStatus, listingStatus = StatusRejected, "rejected"
	}

	var req *Request
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanRequest(tx.QueryRowContext(ctx,
			"SELECT "+requestColumns+" FROM verification_requests WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return eris.Wrapf(ErrNotFound, "request %d", id)
		}
		if err != nil {
			return eris.Wrapf(err, "querying request %d", id)
		}
		if current.Status != StatusOpen {
			return eris.Wrapf(ErrAlreadyResolved, "request %d is %s", id, current.Status)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE verification_requests
			 SET status = ?, reviewer = ?, review_note = ?, resolved_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			string(reqStatus), reviewer, note, id,
		); err != nil {
			return eris.Wrap(err, "resolving request")
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE listings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			listingStatus, current.ListingID,
		); err != nil {
			return eris.Wrap(err, "updating listing status")
		}

		req, err = scanRequest(tx.QueryRowContext(ctx,
			"SELECT "+requestColumns+" FROM verification_requests WHERE id = ?", id))
		if err != nil {
			return eris.Wrap(err, "reading back request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("verification resolved",
		zap.Int64("request_id", id),
		zap.Int64("listing_id", req.ListingID),
		zap.String("decision", string(decision)),
		zap.String("reviewer", reviewer),
	)
	return req, nil
}

// withTx runs fn in a transaction, rolling back on error.
func (r *Repository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "beginning transaction")
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			zap.L().Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "committing transaction")
	}
	return nil
}

func scanRequest(row interface{ Scan(...any) error }) (*Request, error) {
	var req Request
	var status string
	var resolvedAt sql.NullTime
	if err := row.Scan(
		&req.ID, &req.ListingID, &req.RequestedBy, &req.Notes, &status,
		&req.Reviewer, &req.ReviewNote, &req.CreatedAt, &resolvedAt,
	); err != nil {
		return nil, err
	}
	req.Status = Status(status)
	if resolvedAt.Valid {
		req.ResolvedAt = &resolvedAt.Time
	}
	return &req, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
