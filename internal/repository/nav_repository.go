package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
)

// NAVRepository provides data access methods for the nav_history table.
type NAVRepository struct {
	db *sql.DB
}

// NewNAVRepository creates a new NAVRepository with the provided database connection.
func NewNAVRepository(db *sql.DB) *NAVRepository {
	return &NAVRepository{db: db}
}

// GetNAVHistory retrieves NAV observations for a scheme within the inclusive
// date range, ordered by date ascending.
func (s *NAVRepository) GetNAVHistory(schemeID string, startDate, endDate time.Time) ([]model.NAVRecord, error) {
	navQuery := `
		SELECT id, scheme_id, date, nav
		FROM nav_history
		WHERE scheme_id = ?
		AND date >= ?
		AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.db.Query(navQuery, schemeID, startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query nav_history table: %w", err)
	}
	defer rows.Close()

	records := []model.NAVRecord{}
	for rows.Next() {
		var r model.NAVRecord
		var dateStr, navStr string

		if err := rows.Scan(&r.ID, &r.SchemeID, &dateStr, &navStr); err != nil {
			return nil, fmt.Errorf("failed to scan nav_history table results: %w", err)
		}
		r.Date, err = ParseTime(dateStr)
		if err != nil || r.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		if r.NAV, err = ParseDecimal(navStr); err != nil {
			return nil, err
		}

		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nav_history table: %w", err)
	}

	return records, nil
}

// GetLatestNAVDate returns the most recent NAV observation date for a scheme.
// The second return value is false when the scheme has no NAV history yet.
func (s *NAVRepository) GetLatestNAVDate(schemeID string) (time.Time, bool, error) {
	var latestDateStr sql.NullString

	err := s.db.QueryRow(`SELECT MAX(date) FROM nav_history WHERE scheme_id = ?`, schemeID).Scan(&latestDateStr)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query nav_history table: %w", err)
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

// InsertNAVRecords inserts a batch of NAV observations, silently skipping
// dates already present for the scheme. Refresh runs overlap on purpose so
// a provider correction on the boundary date is never duplicated.
func (s *NAVRepository) InsertNAVRecords(records []model.NAVRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT OR IGNORE INTO nav_history (id, scheme_id, date, nav)
		VALUES (?, ?, ?, ?)
	`

	inserted := 0
	for _, r := range records {
		res, err := tx.Exec(insertQuery, r.ID, r.SchemeID, r.Date.Format("2006-01-02"), r.NAV.String())
		if err != nil {
			return 0, fmt.Errorf("failed to insert into nav_history table: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit nav batch: %w", err)
	}
	return inserted, nil
}
