package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/apperrors"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/shopspring/decimal"
)

// HoldingRepository provides data access methods for the holding table.
// A holding is one scheme held inside one folio and is the unit of work for
// the valuation pipeline.
type HoldingRepository struct {
	db *sql.DB
}

// NewHoldingRepository creates a new HoldingRepository with the provided database connection.
func NewHoldingRepository(db *sql.DB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// GetHoldingRefs retrieves holding identity tuples with their folio and
// portfolio ancestry, optionally scoped to one portfolio. The recompute
// orchestrator groups work by the returned portfolio IDs.
func (s *HoldingRepository) GetHoldingRefs(portfolioID string) ([]model.HoldingRef, error) {
	query := `
		SELECT h.id, h.scheme_id, h.folio_id, f.portfolio_id
		FROM holding h
		JOIN folio f ON h.folio_id = f.id
	`
	var args []any
	if portfolioID != "" {
		query += ` WHERE f.portfolio_id = ?`
		args = append(args, portfolioID)
	}
	query += ` ORDER BY f.portfolio_id, h.folio_id, h.id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holding table: %w", err)
	}
	defer rows.Close()

	refs := []model.HoldingRef{}
	for rows.Next() {
		var r model.HoldingRef
		if err := rows.Scan(&r.HoldingID, &r.SchemeID, &r.FolioID, &r.PortfolioID); err != nil {
			return nil, fmt.Errorf("failed to scan holding table results: %w", err)
		}
		refs = append(refs, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holding table: %w", err)
	}
	return refs, nil
}

// GetHolding retrieves a single holding by ID.
func (s *HoldingRepository) GetHolding(holdingID string) (model.Holding, error) {
	query := `
		SELECT id, folio_id, scheme_id, valuation, xirr, valuation_date
		FROM holding
		WHERE id = ?
	`

	var h model.Holding
	var valuationStr, valuationDateStr sql.NullString
	var xirr sql.NullFloat64

	err := s.db.QueryRow(query, holdingID).Scan(
		&h.ID, &h.FolioID, &h.SchemeID, &valuationStr, &xirr, &valuationDateStr,
	)
	if err == sql.ErrNoRows {
		return model.Holding{}, apperrors.ErrHoldingNotFound
	}
	if err != nil {
		return model.Holding{}, fmt.Errorf("failed to scan holding table results: %w", err)
	}

	if valuationStr.Valid {
		v, err := ParseDecimal(valuationStr.String)
		if err != nil {
			return model.Holding{}, err
		}
		h.Valuation = &v
	}
	if xirr.Valid {
		h.XIRRLive = &xirr.Float64
	}
	if valuationDateStr.Valid {
		d, err := ParseTime(valuationDateStr.String)
		if err != nil {
			return model.Holding{}, err
		}
		h.ValuationDate = &d
	}

	return h, nil
}

// GetHoldingByFolioScheme retrieves the holding for a folio and scheme pair,
// or nil when the pair has never been held.
func (s *HoldingRepository) GetHoldingByFolioScheme(folioID, schemeID string) (*model.Holding, error) {
	var holdingID string
	err := s.db.QueryRow(
		`SELECT id FROM holding WHERE folio_id = ? AND scheme_id = ?`,
		folioID, schemeID,
	).Scan(&holdingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query holding table: %w", err)
	}

	h, err := s.GetHolding(holdingID)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateHolding inserts a new holding row.
func (s *HoldingRepository) CreateHolding(h model.Holding) error {
	_, err := s.db.Exec(
		`INSERT INTO holding (id, folio_id, scheme_id) VALUES (?, ?, ?)`,
		h.ID, h.FolioID, h.SchemeID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert into holding table: %w", err)
	}
	return nil
}

// UpdateHoldingValuation stores the current market value and live return rate
// on a holding after a valuation run. A nil rate is stored as NULL.
func (s *HoldingRepository) UpdateHoldingValuation(holdingID string, valuation decimal.Decimal, xirr *float64, date time.Time) error {
	var xirrVal any
	if xirr != nil {
		xirrVal = *xirr
	}

	_, err := s.db.Exec(
		`UPDATE holding SET valuation = ?, xirr = ?, valuation_date = ? WHERE id = ?`,
		valuation.String(), xirrVal, date.Format("2006-01-02"), holdingID,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding table: %w", err)
	}
	return nil
}
