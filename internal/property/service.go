package property

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/rental-arb/internal/deal"
	"github.com/evcraddock/rental-arb/internal/market"
)

// DefaultConcurrency bounds parallel rescoring when none is configured.
const DefaultConcurrency = 4

// ErrNoMarketData is returned when a refresh is requested without a
// configured market data provider.
var ErrNoMarketData = eris.New("market data provider not configured")

// ComparablesSource looks up market comparables. Refresh skips any cache.
type ComparablesSource interface {
	Lookup(ctx context.Context, q market.Query) (*market.Comparables, error)
	Refresh(ctx context.Context, q market.Query) (*market.Comparables, error)
}

// Service provides listing business logic.
type Service struct {
	repo        *Repository
	market      ComparablesSource
	concurrency int
}

// NewService creates a listing service. src may be nil, in which case
// listings are scored on their own facts plus defaults.
func NewService(repo *Repository, src ComparablesSource, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Service{repo: repo, market: src, concurrency: concurrency}
}

// Repo exposes the underlying repository for read paths.
func (s *Service) Repo() *Repository {
	return s.repo
}

// NewProperty is the input for Add. Optional facts override anything the
// market provider reports.
type NewProperty struct {
	Address     string  `json:"address"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	MonthlyRent float64 `json:"monthly_rent"`
	Beds        int     `json:"beds"`
	Baths       int     `json:"baths"`
	Notes       string  `json:"notes,omitempty"`
	CreatedBy   string  `json:"-"`

	STRRate          *float64             `json:"str_rate,omitempty"`
	Walkability      *float64             `json:"walkability,omitempty"`
	DistanceKm       *float64             `json:"distance_km,omitempty"`
	NearbySTRCount   *int                 `json:"nearby_str_count,omitempty"`
	RegulationRisk   *deal.RegulationRisk `json:"regulation_risk,omitempty"`
	SeasonalVariance *float64             `json:"seasonal_variance,omitempty"`
}

func (n NewProperty) toProperty() *Property {
	return &Property{
		Address:          strings.TrimSpace(n.Address),
		City:             strings.TrimSpace(n.City),
		State:            strings.ToUpper(strings.TrimSpace(n.State)),
		MonthlyRent:      n.MonthlyRent,
		Beds:             n.Beds,
		Baths:            n.Baths,
		Notes:            n.Notes,
		CreatedBy:        n.CreatedBy,
		STRRate:          n.STRRate,
		Walkability:      n.Walkability,
		DistanceKm:       n.DistanceKm,
		NearbySTRCount:   n.NearbySTRCount,
		RegulationRisk:   n.RegulationRisk,
		SeasonalVariance: n.SeasonalVariance,
	}
}

// Add validates, enriches, scores and stores a new listing. A failed market
// lookup is logged and the listing is scored with defaults.
func (s *Service) Add(ctx context.Context, in NewProperty) (*Property, error) {
	p := in.toProperty()
	if p.Address == "" {
		return nil, eris.Wrap(deal.ErrInvalidInput, "address is required")
	}
	if p.City == "" {
		return nil, eris.Wrap(deal.ErrInvalidInput, "city is required")
	}
	if err := p.Facts().Validate(); err != nil {
		return nil, err
	}

	if s.market != nil && missingFacts(p) {
		comps, err := s.market.Lookup(ctx, queryFor(p))
		if err != nil {
			zap.L().Warn("market lookup failed, scoring with defaults",
				zap.String("address", p.Address),
				zap.Error(err),
			)
		} else {
			fillMissing(p, comps)
		}
	}

	score := deal.Score(p.Facts())
	saved, err := s.repo.Insert(ctx, p, score)
	if err != nil {
		return nil, eris.Wrap(err, "saving listing")
	}

	logScoreChange(saved, score)
	return saved, nil
}

// Rescore recomputes and stores the lead score for one listing.
func (s *Service) Rescore(ctx context.Context, id int64) (*Property, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	score := deal.Score(p.Facts())
	logScoreChange(p, score)

	if err := s.repo.SaveScore(ctx, id, score); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// RescoreSummary reports the outcome of RescoreAll.
type RescoreSummary struct {
	Total  int `json:"total"`
	Scored int `json:"scored"`
	Failed int `json:"failed"`
}

// RescoreAll rescores every listing in parallel. Individual failures are
// logged and counted; only cancellation aborts the run.
func (s *Service) RescoreAll(ctx context.Context) (RescoreSummary, error) {
	ids, err := s.repo.IDs(ctx)
	if err != nil {
		return RescoreSummary{}, err
	}

	var scored, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := s.Rescore(gctx, id); err != nil {
				failed.Add(1)
				zap.L().Error("rescore failed", zap.Int64("listing_id", id), zap.Error(err))
				return nil
			}
			scored.Add(1)
			return nil
		})
	}

	err = g.Wait()
	summary := RescoreSummary{
		Total:  len(ids),
		Scored: int(scored.Load()),
		Failed: int(failed.Load()),
	}
	if err != nil {
		return summary, eris.Wrap(err, "rescoring listings")
	}

	zap.L().Info("rescore complete",
		zap.Int("total", summary.Total),
		zap.Int("scored", summary.Scored),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// RefreshMarket refetches comparables for a listing and rescores it.
// Provider values replace the stored market facts.
func (s *Service) RefreshMarket(ctx context.Context, id int64) (*Property, error) {
	if s.market == nil {
		return nil, ErrNoMarketData
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	comps, err := s.market.Refresh(ctx, queryFor(p))
	if err != nil {
		return nil, eris.Wrap(err, "looking up comparables")
	}

	facts := MarketFacts{
		STRRate:          firstFloat(comps.NightlyRate, p.STRRate),
		Walkability:      firstFloat(comps.WalkScore, p.Walkability),
		DistanceKm:       firstFloat(comps.DowntownKm, p.DistanceKm),
		NearbySTRCount:   p.NearbySTRCount,
		RegulationRisk:   p.RegulationRisk,
		SeasonalVariance: firstFloat(comps.SeasonalVariance, p.SeasonalVariance),
		RawJSON:          comps.RawJSON,
	}
	if comps.NearbySTRCount != nil {
		facts.NearbySTRCount = comps.NearbySTRCount
	}
	if comps.RegulationRisk != nil {
		r := deal.RegulationRisk(*comps.RegulationRisk)
		facts.RegulationRisk = &r
	}

	if err := s.repo.UpdateFacts(ctx, id, facts); err != nil {
		return nil, err
	}
	return s.Rescore(ctx, id)
}

func queryFor(p *Property) market.Query {
	return market.Query{
		Address: p.Address,
		City:    p.City,
		State:   p.State,
		Beds:    p.Beds,
		Baths:   p.Baths,
	}
}

func missingFacts(p *Property) bool {
	return p.STRRate == nil || p.Walkability == nil || p.DistanceKm == nil ||
		p.NearbySTRCount == nil || p.RegulationRisk == nil || p.SeasonalVariance == nil
}

// fillMissing copies provider values into facts the caller left unset.
func fillMissing(p *Property, c *market.Comparables) {
	if p.STRRate == nil {
		p.STRRate = c.NightlyRate
	}
	if p.Walkability == nil {
		p.Walkability = c.WalkScore
	}
	if p.DistanceKm == nil {
		p.DistanceKm = c.DowntownKm
	}
	if p.NearbySTRCount == nil {
		p.NearbySTRCount = c.NearbySTRCount
	}
	if p.RegulationRisk == nil && c.RegulationRisk != nil {
		r := deal.RegulationRisk(*c.RegulationRisk)
		p.RegulationRisk = &r
	}
	if p.SeasonalVariance == nil {
		p.SeasonalVariance = c.SeasonalVariance
	}
	p.MarketRaw = c.RawJSON
}

func firstFloat(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// logScoreChange records score movement between runs.
func logScoreChange(p *Property, score deal.LeadScore) {
	fields := []zap.Field{
		zap.Int64("listing_id", p.ID),
		zap.Int("score", score.TotalScore),
		zap.String("grade", string(score.Grade)),
	}
	if p.LeadScore != nil {
		fields = append(fields, zap.Int("previous", *p.LeadScore))
	}
	zap.L().Debug("listing scored", fields...)
}
