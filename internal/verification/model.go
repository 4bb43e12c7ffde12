// Package verification tracks requests to have a listing's details confirmed
// by an admin.
package verification

import (
	"time"

	"github.com/rotisserie/eris"
)

var (
	// ErrNotFound is returned when a request does not exist.
	ErrNotFound = eris.New("verification request not found")
	// ErrAlreadyPending is returned when a listing already has an open request.
	ErrAlreadyPending = eris.New("listing already has an open verification request")
	// ErrAlreadyResolved is returned when resolving a closed request.
	ErrAlreadyResolved = eris.New("verification request already resolved")
	// ErrListingNotFound is returned when submitting for a missing listing.
	ErrListingNotFound = eris.New("listing does not exist")
)

// Status is the lifecycle state of a request.
type Status string

const (
	StatusOpen     Status = "open"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Decision is an admin's ruling on a request.
type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// IsValid checks if a decision is recognized.
func (d Decision) IsValid() bool {
	return d == Approve || d == Reject
}

// Request asks for a listing to be verified.
type Request struct {
	ID          int64      `json:"id"`
	ListingID   int64      `json:"listing_id"`
	RequestedBy string     `json:"requested_by"`
	Notes       string     `json:"notes"`
	Status      Status     `json:"status"`
	Reviewer    string     `json:"reviewer,omitempty"`
	ReviewNote  string     `json:"review_note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// PendingRequest is an open request joined with its listing's address.
type PendingRequest struct {
	Request
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}
