package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/mfapi"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/repository"
)

// NAVFeed fetches published NAV history for an AMFI scheme code.
// Satisfied by *mfapi.Client; tests substitute a local implementation.
type NAVFeed interface {
	GetNAVHistory(ctx context.Context, amfiCode string) (mfapi.NAVSeries, error)
}

// NAVService keeps stored NAV history current against the public feed.
// Refreshes are incremental: only observations after the latest stored date
// are requested to be inserted, and the unique (scheme, date) constraint
// absorbs feed corrections on the boundary.
type NAVService struct {
	schemeRepo *repository.SchemeRepository
	navRepo    *repository.NAVRepository
	feed       NAVFeed
}

// NewNAVService creates a new NAVService with the provided repositories and feed client.
func NewNAVService(
	schemeRepo *repository.SchemeRepository,
	navRepo *repository.NAVRepository,
	feed NAVFeed,
) *NAVService {
	return &NAVService{
		schemeRepo: schemeRepo,
		navRepo:    navRepo,
		feed:       feed,
	}
}

// RefreshAll refreshes NAV history for every scheme with an AMFI code.
// Returns scheme id -> rows inserted. A failing scheme is reported in the
// error but does not block the others.
func (s *NAVService) RefreshAll(ctx context.Context) (map[string]int, error) {
	schemes, err := s.schemeRepo.GetSchemesWithAmfiCode()
	if err != nil {
		return nil, err
	}

	inserted := make(map[string]int, len(schemes))
	var firstErr error
	for _, scheme := range schemes {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		n, err := s.RefreshScheme(ctx, scheme)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("scheme %s: %w", scheme.ID, err)
			}
			continue
		}
		inserted[scheme.ID] = n
	}
	return inserted, firstErr
}

// RefreshScheme fetches and stores new NAV observations for one scheme.
func (s *NAVService) RefreshScheme(ctx context.Context, scheme model.FundScheme) (int, error) {
	latest, hasHistory, err := s.navRepo.GetLatestNAVDate(scheme.ID)
	if err != nil {
		return 0, err
	}

	series, err := s.feed.GetNAVHistory(ctx, scheme.AmfiCode)
	if err != nil {
		return 0, err
	}

	records := []model.NAVRecord{}
	for _, q := range series.Quotes {
		if hasHistory && q.Date.Before(latest) {
			continue
		}
		records = append(records, model.NAVRecord{
			ID:       uuid.NewString(),
			SchemeID: scheme.ID,
			Date:     q.Date,
			NAV:      q.NAV,
		})
	}

	return s.navRepo.InsertNAVRecords(records)
}

// GetNAVHistory returns stored NAV observations for a scheme and date range.
func (s *NAVService) GetNAVHistory(schemeID string, startDate, endDate time.Time) ([]model.NAVRecord, error) {
	if _, err := s.schemeRepo.GetScheme(schemeID); err != nil {
		return nil, err
	}
	return s.navRepo.GetNAVHistory(schemeID, startDate, endDate)
}
