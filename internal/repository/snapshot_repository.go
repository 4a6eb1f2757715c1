package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/valuation"
)

// SnapshotRepository provides data access methods for the materialized value
// tables: scheme_value, folio_value and portfolio_value. Rows in these tables
// are derived data. They are only ever written by the recomputation pipeline
// and are keyed by (owner, date) so a rerun overwrites rather than duplicates.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func scanSchemeValue(scan func(dest ...any) error) (model.SchemeValue, error) {
	var v model.SchemeValue
	var dateStr string
	var investedStr, avgNavStr, balanceStr, navStr, valueStr string

	err := scan(&v.ID, &v.HoldingID, &dateStr, &investedStr, &avgNavStr, &balanceStr, &navStr, &valueStr)
	if err != nil {
		return v, err
	}

	if v.Date, err = ParseTime(dateStr); err != nil {
		return v, err
	}
	if v.Invested, err = ParseDecimal(investedStr); err != nil {
		return v, err
	}
	if v.AvgNAV, err = ParseDecimal(avgNavStr); err != nil {
		return v, err
	}
	if v.Balance, err = ParseDecimal(balanceStr); err != nil {
		return v, err
	}
	if v.NAV, err = ParseDecimal(navStr); err != nil {
		return v, err
	}
	if v.Value, err = ParseDecimal(valueStr); err != nil {
		return v, err
	}
	return v, nil
}

const schemeValueColumns = `id, holding_id, date, invested, avg_nav, balance, nav, value`

// GetLatestSchemeValueBefore returns the most recent scheme snapshot strictly
// before the given date, or nil when the holding has no earlier history.
// This row seeds incremental recomputation windows.
func (s *SnapshotRepository) GetLatestSchemeValueBefore(holdingID string, before time.Time) (*model.SchemeValue, error) {
	query := `
		SELECT ` + schemeValueColumns + `
		FROM scheme_value
		WHERE holding_id = ?
		AND date < ?
		ORDER BY date DESC
		LIMIT 1
	`

	row := s.db.QueryRow(query, holdingID, before.Format("2006-01-02"))
	v, err := scanSchemeValue(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scheme_value table results: %w", err)
	}
	return &v, nil
}

// GetLatestSchemeValue returns the most recent scheme snapshot for a holding,
// or nil when none exists.
func (s *SnapshotRepository) GetLatestSchemeValue(holdingID string) (*model.SchemeValue, error) {
	query := `
		SELECT ` + schemeValueColumns + `
		FROM scheme_value
		WHERE holding_id = ?
		ORDER BY date DESC
		LIMIT 1
	`

	row := s.db.QueryRow(query, holdingID)
	v, err := scanSchemeValue(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scheme_value table results: %w", err)
	}
	return &v, nil
}

// GetLatestSchemeValueDate returns the most recent snapshot date across all
// holdings, optionally scoped to one portfolio. The second return value is
// false when no snapshots exist. Used to resolve "auto" recompute requests.
func (s *SnapshotRepository) GetLatestSchemeValueDate(portfolioID string) (time.Time, bool, error) {
	query := `
		SELECT MAX(sv.date)
		FROM scheme_value sv
	`
	var args []any
	if portfolioID != "" {
		query += `
		JOIN holding h ON sv.holding_id = h.id
		JOIN folio f ON h.folio_id = f.id
		WHERE f.portfolio_id = ?
		`
		args = append(args, portfolioID)
	}

	var latestDateStr sql.NullString
	if err := s.db.QueryRow(query, args...).Scan(&latestDateStr); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query scheme_value table: %w", err)
	}
	if !latestDateStr.Valid {
		return time.Time{}, false, nil
	}

	latestDate, err := time.Parse("2006-01-02", latestDateStr.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse date: %w", err)
	}
	return latestDate, true, nil
}

// UpsertSchemeValues writes a batch of daily scheme snapshots, replacing any
// existing row for the same holding and date. Returns the number of rows written.
func (s *SnapshotRepository) UpsertSchemeValues(values []model.SchemeValue) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsertQuery := `
		INSERT INTO scheme_value (id, holding_id, date, invested, avg_nav, balance, nav, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(holding_id, date) DO UPDATE SET
			invested = excluded.invested,
			avg_nav = excluded.avg_nav,
			balance = excluded.balance,
			nav = excluded.nav,
			value = excluded.value
	`

	for _, v := range values {
		_, err := tx.Exec(upsertQuery,
			v.ID,
			v.HoldingID,
			v.Date.Format("2006-01-02"),
			v.Invested.String(),
			v.AvgNAV.String(),
			v.Balance.String(),
			v.NAV.String(),
			v.Value.String(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert into scheme_value table: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit scheme_value batch: %w", err)
	}
	return len(values), nil
}

// DeleteSchemeValuesAfter removes snapshot rows dated strictly after the
// given date for one holding. Called when a holding's series now ends
// earlier than previously persisted rows claimed.
func (s *SnapshotRepository) DeleteSchemeValuesAfter(holdingID string, after time.Time) error {
	_, err := s.db.Exec(
		`DELETE FROM scheme_value WHERE holding_id = ? AND date > ?`,
		holdingID, after.Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("failed to delete from scheme_value table: %w", err)
	}
	return nil
}

// DeleteFolioValuesAfter removes folio aggregate rows dated strictly after the given date.
func (s *SnapshotRepository) DeleteFolioValuesAfter(folioID string, after time.Time) error {
	_, err := s.db.Exec(
		`DELETE FROM folio_value WHERE folio_id = ? AND date > ?`,
		folioID, after.Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("failed to delete from folio_value table: %w", err)
	}
	return nil
}

// DeletePortfolioValuesAfter removes portfolio aggregate rows dated strictly after the given date.
func (s *SnapshotRepository) DeletePortfolioValuesAfter(portfolioID string, after time.Time) error {
	_, err := s.db.Exec(
		`DELETE FROM portfolio_value WHERE portfolio_id = ? AND date > ?`,
		portfolioID, after.Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("failed to delete from portfolio_value table: %w", err)
	}
	return nil
}

// GetSchemeValueTuples retrieves scheme snapshots from the given date onward
// as (folio, date, invested, value) tuples for the folio aggregation pass,
// optionally scoped to one portfolio.
func (s *SnapshotRepository) GetSchemeValueTuples(from time.Time, portfolioID string) ([]valuation.ChildValue, error) {
	query := `
		SELECT f.id, sv.date, sv.invested, sv.value
		FROM scheme_value sv
		JOIN holding h ON sv.holding_id = h.id
		JOIN folio f ON h.folio_id = f.id
		WHERE sv.date >= ?
	`
	args := []any{from.Format("2006-01-02")}
	if portfolioID != "" {
		query += ` AND f.portfolio_id = ?`
		args = append(args, portfolioID)
	}
	query += ` ORDER BY f.id, sv.date`

	return s.queryTuples(query, args)
}

// GetFolioValueTuples retrieves folio aggregates from the given date onward
// as (portfolio, date, invested, value) tuples for the portfolio aggregation
// pass, optionally scoped to one portfolio.
func (s *SnapshotRepository) GetFolioValueTuples(from time.Time, portfolioID string) ([]valuation.ChildValue, error) {
	query := `
		SELECT f.portfolio_id, fv.date, fv.invested, fv.value
		FROM folio_value fv
		JOIN folio f ON fv.folio_id = f.id
		WHERE fv.date >= ?
	`
	args := []any{from.Format("2006-01-02")}
	if portfolioID != "" {
		query += ` AND f.portfolio_id = ?`
		args = append(args, portfolioID)
	}
	query += ` ORDER BY f.portfolio_id, fv.date`

	return s.queryTuples(query, args)
}

func (s *SnapshotRepository) queryTuples(query string, args []any) ([]valuation.ChildValue, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query value tuples: %w", err)
	}
	defer rows.Close()

	tuples := []valuation.ChildValue{}
	for rows.Next() {
		var c valuation.ChildValue
		var dateStr, investedStr, valueStr string

		if err := rows.Scan(&c.ParentID, &dateStr, &investedStr, &valueStr); err != nil {
			return nil, fmt.Errorf("failed to scan value tuple: %w", err)
		}
		if c.Date, err = ParseTime(dateStr); err != nil {
			return nil, err
		}
		if c.Invested, err = ParseDecimal(investedStr); err != nil {
			return nil, err
		}
		if c.Value, err = ParseDecimal(valueStr); err != nil {
			return nil, err
		}
		tuples = append(tuples, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating value tuples: %w", err)
	}
	return tuples, nil
}

// UpsertFolioValues writes a batch of folio aggregate rows, replacing any
// existing row for the same folio and date.
func (s *SnapshotRepository) UpsertFolioValues(values []model.FolioValue) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsertQuery := `
		INSERT INTO folio_value (id, folio_id, date, invested, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(folio_id, date) DO UPDATE SET
			invested = excluded.invested,
			value = excluded.value
	`

	for _, v := range values {
		_, err := tx.Exec(upsertQuery,
			v.ID, v.FolioID, v.Date.Format("2006-01-02"), v.Invested.String(), v.Value.String(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert into folio_value table: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit folio_value batch: %w", err)
	}
	return len(values), nil
}

// UpsertPortfolioValues writes a batch of portfolio aggregate rows, replacing
// invested and value for the same portfolio and date. Return rates on existing
// rows are left untouched; the dedicated rate pass maintains them.
func (s *SnapshotRepository) UpsertPortfolioValues(values []model.PortfolioValue) (int, error) {
	if len(values) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsertQuery := `
		INSERT INTO portfolio_value (id, portfolio_id, date, invested, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, date) DO UPDATE SET
			invested = excluded.invested,
			value = excluded.value
	`

	for _, v := range values {
		_, err := tx.Exec(upsertQuery,
			v.ID, v.PortfolioID, v.Date.Format("2006-01-02"), v.Invested.String(), v.Value.String(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert into portfolio_value table: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit portfolio_value batch: %w", err)
	}
	return len(values), nil
}

// GetLatestPortfolioValue returns the most recent aggregate row for a
// portfolio, or nil when none exists.
func (s *SnapshotRepository) GetLatestPortfolioValue(portfolioID string) (*model.PortfolioValue, error) {
	query := `
		SELECT id, portfolio_id, date, invested, value, xirr, live_xirr
		FROM portfolio_value
		WHERE portfolio_id = ?
		ORDER BY date DESC
		LIMIT 1
	`

	v, err := s.scanPortfolioValue(s.db.QueryRow(query, portfolioID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan portfolio_value table results: %w", err)
	}
	return &v, nil
}

// GetPortfolioValueHistory retrieves portfolio aggregate rows within the
// inclusive date range, ordered by date ascending.
func (s *SnapshotRepository) GetPortfolioValueHistory(portfolioID string, startDate, endDate time.Time) ([]model.PortfolioValue, error) {
	query := `
		SELECT id, portfolio_id, date, invested, value, xirr, live_xirr
		FROM portfolio_value
		WHERE portfolio_id = ?
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.db.Query(query, portfolioID, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio_value table: %w", err)
	}
	defer rows.Close()

	values := []model.PortfolioValue{}
	for rows.Next() {
		v, err := s.scanPortfolioValue(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio_value table results: %w", err)
		}
		values = append(values, v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_value table: %w", err)
	}
	return values, nil
}

func (s *SnapshotRepository) scanPortfolioValue(scan func(dest ...any) error) (model.PortfolioValue, error) {
	var v model.PortfolioValue
	var dateStr, investedStr, valueStr string
	var xirr, liveXirr sql.NullFloat64

	err := scan(&v.ID, &v.PortfolioID, &dateStr, &investedStr, &valueStr, &xirr, &liveXirr)
	if err != nil {
		return v, err
	}

	if v.Date, err = ParseTime(dateStr); err != nil {
		return v, err
	}
	if v.Invested, err = ParseDecimal(investedStr); err != nil {
		return v, err
	}
	if v.Value, err = ParseDecimal(valueStr); err != nil {
		return v, err
	}
	if xirr.Valid {
		v.XIRR = &xirr.Float64
	}
	if liveXirr.Valid {
		v.LiveXIRR = &liveXirr.Float64
	}
	return v, nil
}

// UpdatePortfolioXIRR stores the full and live annualized return rates on one
// portfolio aggregate row. A nil rate means "not computable" and is stored as
// NULL, never as zero.
func (s *SnapshotRepository) UpdatePortfolioXIRR(portfolioID string, date time.Time, xirr, liveXirr *float64) error {
	var xirrVal, liveXirrVal any
	if xirr != nil {
		xirrVal = *xirr
	}
	if liveXirr != nil {
		liveXirrVal = *liveXirr
	}

	_, err := s.db.Exec(
		`UPDATE portfolio_value SET xirr = ?, live_xirr = ? WHERE portfolio_id = ? AND date = ?`,
		xirrVal, liveXirrVal, portfolioID, date.Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("failed to update portfolio_value table: %w", err)
	}
	return nil
}
