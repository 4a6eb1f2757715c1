package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
)

// RealizedGainRepository provides data access methods for the realized_gain table.
type RealizedGainRepository struct {
	db *sql.DB
}

// NewRealizedGainRepository creates a new RealizedGainRepository with the provided database connection.
func NewRealizedGainRepository(db *sql.DB) *RealizedGainRepository {
	return &RealizedGainRepository{db: db}
}

// DeleteRealizedGainsFrom removes realized gain rows dated on or after the
// given date for one holding. The recompute window re-emits disposals from
// that date, so stale rows must go first.
func (s *RealizedGainRepository) DeleteRealizedGainsFrom(holdingID string, from time.Time) error {
	_, err := s.db.Exec(
		`DELETE FROM realized_gain WHERE holding_id = ? AND date >= ?`,
		holdingID, from.Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("failed to delete from realized_gain table: %w", err)
	}
	return nil
}

// CreateRealizedGains inserts a batch of realized gain rows.
func (s *RealizedGainRepository) CreateRealizedGains(gains []model.RealizedGain) error {
	if len(gains) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO realized_gain (id, holding_id, date, units, cost_basis, proceeds, gain)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for _, g := range gains {
		_, err := tx.Exec(insertQuery,
			g.ID,
			g.HoldingID,
			g.Date.Format("2006-01-02"),
			g.Units.String(),
			g.CostBasis.String(),
			g.Proceeds.String(),
			g.Gain.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert into realized_gain table: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit realized_gain batch: %w", err)
	}
	return nil
}

// GetRealizedGains retrieves all realized gain rows for a holding, ordered by date.
func (s *RealizedGainRepository) GetRealizedGains(holdingID string) ([]model.RealizedGain, error) {
	query := `
		SELECT id, holding_id, date, units, cost_basis, proceeds, gain
		FROM realized_gain
		WHERE holding_id = ?
		ORDER BY date ASC
	`

	rows, err := s.db.Query(query, holdingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query realized_gain table: %w", err)
	}
	defer rows.Close()

	gains := []model.RealizedGain{}
	for rows.Next() {
		var g model.RealizedGain
		var dateStr, unitsStr, costStr, proceedsStr, gainStr string

		if err := rows.Scan(&g.ID, &g.HoldingID, &dateStr, &unitsStr, &costStr, &proceedsStr, &gainStr); err != nil {
			return nil, fmt.Errorf("failed to scan realized_gain table results: %w", err)
		}
		if g.Date, err = ParseTime(dateStr); err != nil {
			return nil, err
		}
		if g.Units, err = ParseDecimal(unitsStr); err != nil {
			return nil, err
		}
		if g.CostBasis, err = ParseDecimal(costStr); err != nil {
			return nil, err
		}
		if g.Proceeds, err = ParseDecimal(proceedsStr); err != nil {
			return nil, err
		}
		if g.Gain, err = ParseDecimal(gainStr); err != nil {
			return nil, err
		}

		gains = append(gains, g)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating realized_gain table: %w", err)
	}
	return gains, nil
}
