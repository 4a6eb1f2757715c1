package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/apperrors"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/repository"
)

// PortfolioService handles portfolio-related business logic: structure
// management (portfolios, folios, schemes, holdings) and read models built
// from the materialized value tables.
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
	folioRepo     *repository.FolioRepository
	schemeRepo    *repository.SchemeRepository
	holdingRepo   *repository.HoldingRepository
	snapshotRepo  *repository.SnapshotRepository
}

// NewPortfolioService creates a new PortfolioService with the provided repositories.
func NewPortfolioService(
	portfolioRepo *repository.PortfolioRepository,
	folioRepo *repository.FolioRepository,
	schemeRepo *repository.SchemeRepository,
	holdingRepo *repository.HoldingRepository,
	snapshotRepo *repository.SnapshotRepository,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		folioRepo:     folioRepo,
		schemeRepo:    schemeRepo,
		holdingRepo:   holdingRepo,
		snapshotRepo:  snapshotRepo,
	}
}

// GetPortfolios returns all portfolios matching the filter.
func (s *PortfolioService) GetPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolios(filter)
}

// CreatePortfolio creates a new portfolio with a generated ID.
func (s *PortfolioService) CreatePortfolio(name, description string) (model.Portfolio, error) {
	if name == "" {
		return model.Portfolio{}, apperrors.ErrMissingRequiredField
	}
	p := model.Portfolio{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
	}
	if err := s.portfolioRepo.CreatePortfolio(p); err != nil {
		return model.Portfolio{}, err
	}
	return p, nil
}

// CreateFolio creates a folio under an existing portfolio.
func (s *PortfolioService) CreateFolio(folio model.Folio) (model.Folio, error) {
	if folio.Number == "" {
		return model.Folio{}, apperrors.ErrMissingRequiredField
	}
	if _, err := s.portfolioRepo.GetPortfolio(folio.PortfolioID); err != nil {
		return model.Folio{}, err
	}
	folio.ID = uuid.NewString()
	if err := s.folioRepo.CreateFolio(folio); err != nil {
		return model.Folio{}, err
	}
	return folio, nil
}

// CreateScheme registers a fund scheme in the instrument catalog.
func (s *PortfolioService) CreateScheme(scheme model.FundScheme) (model.FundScheme, error) {
	if scheme.Name == "" {
		return model.FundScheme{}, apperrors.ErrMissingRequiredField
	}
	scheme.ID = uuid.NewString()
	if err := s.schemeRepo.CreateScheme(scheme); err != nil {
		return model.FundScheme{}, err
	}
	return scheme, nil
}

// GetOrCreateHolding returns the holding for a folio and scheme pair,
// creating it on first use. Imports call this so a new scheme appearing in a
// statement does not need manual setup.
func (s *PortfolioService) GetOrCreateHolding(folioID, schemeID string) (model.Holding, error) {
	if _, err := s.folioRepo.GetFolio(folioID); err != nil {
		return model.Holding{}, err
	}
	if _, err := s.schemeRepo.GetScheme(schemeID); err != nil {
		return model.Holding{}, err
	}

	existing, err := s.holdingRepo.GetHoldingByFolioScheme(folioID, schemeID)
	if err != nil {
		return model.Holding{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	h := model.Holding{
		ID:       uuid.NewString(),
		FolioID:  folioID,
		SchemeID: schemeID,
	}
	if err := s.holdingRepo.CreateHolding(h); err != nil {
		return model.Holding{}, err
	}
	return h, nil
}

// GetSummary builds the current-state read model for one portfolio: totals
// from the latest portfolio value row plus one line per holding from its
// latest scheme snapshot.
func (s *PortfolioService) GetSummary(portfolioID string) (model.PortfolioSummary, error) {
	portfolio, err := s.portfolioRepo.GetPortfolio(portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	summary := model.PortfolioSummary{
		ID:       portfolio.ID,
		Name:     portfolio.Name,
		Invested: "0",
		Value:    "0",
		Schemes:  []model.SchemeSummary{},
	}

	latest, err := s.snapshotRepo.GetLatestPortfolioValue(portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, err
	}
	if latest != nil {
		summary.Date = latest.Date.Format("2006-01-02")
		summary.Invested = latest.Invested.String()
		summary.Value = latest.Value.String()
		summary.XIRRFull = latest.XIRR
		summary.XIRRLive = latest.LiveXIRR
	}

	refs, err := s.holdingRepo.GetHoldingRefs(portfolioID)
	if err != nil {
		return model.PortfolioSummary{}, err
	}

	for _, ref := range refs {
		scheme, err := s.schemeRepo.GetScheme(ref.SchemeID)
		if err != nil {
			return model.PortfolioSummary{}, err
		}
		folio, err := s.folioRepo.GetFolio(ref.FolioID)
		if err != nil {
			return model.PortfolioSummary{}, err
		}
		holding, err := s.holdingRepo.GetHolding(ref.HoldingID)
		if err != nil {
			return model.PortfolioSummary{}, err
		}

		line := model.SchemeSummary{
			HoldingID:   ref.HoldingID,
			SchemeName:  scheme.Name,
			FolioNumber: folio.Number,
			Invested:    "0",
			Units:       "0",
			AvgNAV:      "0",
			Value:       "0",
			XIRRLive:    holding.XIRRLive,
		}
		if holding.ValuationDate != nil {
			d := holding.ValuationDate.Format("2006-01-02")
			line.ValuationDate = &d
		}

		sv, err := s.snapshotRepo.GetLatestSchemeValue(ref.HoldingID)
		if err != nil {
			return model.PortfolioSummary{}, err
		}
		if sv != nil {
			line.Invested = sv.Invested.String()
			line.Units = sv.Balance.String()
			line.AvgNAV = sv.AvgNAV.String()
			line.Value = sv.Value.String()
		}

		summary.Schemes = append(summary.Schemes, line)
	}

	return summary, nil
}

// GetHistory returns the portfolio value time series for the inclusive date range.
func (s *PortfolioService) GetHistory(portfolioID string, startDate, endDate time.Time) ([]model.PortfolioHistoryPoint, error) {
	if endDate.Before(startDate) {
		return nil, apperrors.ErrInvalidDateRange
	}
	if _, err := s.portfolioRepo.GetPortfolio(portfolioID); err != nil {
		return nil, err
	}

	values, err := s.snapshotRepo.GetPortfolioValueHistory(portfolioID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	points := make([]model.PortfolioHistoryPoint, len(values))
	for i, v := range values {
		points[i] = model.PortfolioHistoryPoint{
			Date:     v.Date.Format("2006-01-02"),
			Invested: v.Invested.String(),
			Value:    v.Value.String(),
		}
	}
	return points, nil
}
