package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/evcraddock/rental-arb/internal/deal"
)

// DefaultSaveTimeout bounds a save when none is configured.
const DefaultSaveTimeout = 10 * time.Second

// Store is the persistence used by Service.
type Store interface {
	Insert(ctx context.Context, a *Analysis) error
	GetByID(ctx context.Context, id string) (*Analysis, error)
	ListByOwner(ctx context.Context, owner string, listingID *int64) ([]*Analysis, error)
	Delete(ctx context.Context, id, owner string) error
}

// Service saves and retrieves analyses.
type Service struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
}

// NewService creates an analysis service.
func NewService(store Store, saveTimeout time.Duration) *Service {
	if saveTimeout <= 0 {
		saveTimeout = DefaultSaveTimeout
	}
	return &Service{store: store, timeout: saveTimeout, now: time.Now}
}

// Save recomputes the estimate from req and stores it. Failures are not
// retried; they are returned as a *SaveError so callers can keep showing
// the result they already computed.
func (s *Service) Save(ctx context.Context, owner string, req SaveRequest) (*Analysis, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, eris.Wrap(deal.ErrInvalidInput, "owner is required")
	}

	if err := deal.ValidateStruct(req); err != nil {
		return nil, err
	}
	quick := req.QuickInputs()

	a := &Analysis{
		ID:          uuid.New().String(),
		ListingID:   req.ListingID,
		Owner:       owner,
		QuickResult: deal.QuickEstimate(quick),
		CreatedAt:   s.now().UTC(),
	}

	if req.Inputs != nil {
		if err := req.Inputs.Validate(); err != nil {
			return nil, err
		}
		in := *req.Inputs
		res := deal.Compute(in)
		a.Inputs = &in
		a.Results = &res
	}

	saveCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Insert(saveCtx, a); err != nil {
		zap.L().Error("saving analysis failed",
			zap.String("owner", owner),
			zap.Duration("timeout", s.timeout),
			zap.Error(err),
		)
		return nil, &SaveError{Cause: err}
	}

	return a, nil
}

// Get returns an analysis if owner may see it.
func (s *Service) Get(ctx context.Context, id, owner string) (*Analysis, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Owner != owner {
		return nil, eris.Wrapf(ErrNotFound, "analysis %s", id)
	}
	return a, nil
}

// List returns an owner's analyses.
func (s *Service) List(ctx context.Context, owner string, listingID *int64) ([]*Analysis, error) {
	return s.store.ListByOwner(ctx, owner, listingID)
}

// Delete removes an owner's analysis.
func (s *Service) Delete(ctx context.Context, id, owner string) error {
	return s.store.Delete(ctx, id, owner)
}
