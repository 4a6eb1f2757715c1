package repository

import (
	"database/sql"
	"fmt"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/apperrors"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
)

// SchemeRepository provides data access methods for the fund_scheme table.
type SchemeRepository struct {
	db *sql.DB
}

// NewSchemeRepository creates a new SchemeRepository with the provided database connection.
func NewSchemeRepository(db *sql.DB) *SchemeRepository {
	return &SchemeRepository{db: db}
}

const schemeColumns = `id, name, isin, amfi_code, rta, rta_code, plan, category`

// GetScheme retrieves a single fund scheme by ID.
func (s *SchemeRepository) GetScheme(schemeID string) (model.FundScheme, error) {
	var f model.FundScheme
	err := s.db.QueryRow(
		`SELECT `+schemeColumns+` FROM fund_scheme WHERE id = ?`, schemeID,
	).Scan(&f.ID, &f.Name, &f.ISIN, &f.AmfiCode, &f.RTA, &f.RTACode, &f.Plan, &f.Category)
	if err == sql.ErrNoRows {
		return model.FundScheme{}, apperrors.ErrSchemeNotFound
	}
	if err != nil {
		return model.FundScheme{}, fmt.Errorf("failed to scan fund_scheme table results: %w", err)
	}
	return f, nil
}

// GetSchemesWithAmfiCode retrieves schemes that can be refreshed against the
// public NAV feed, meaning those with a non-empty AMFI code.
func (s *SchemeRepository) GetSchemesWithAmfiCode() ([]model.FundScheme, error) {
	query := `
		SELECT ` + schemeColumns + `
		FROM fund_scheme
		WHERE amfi_code != ''
		ORDER BY name ASC
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund_scheme table: %w", err)
	}
	defer rows.Close()

	schemes := []model.FundScheme{}
	for rows.Next() {
		var f model.FundScheme
		if err := rows.Scan(&f.ID, &f.Name, &f.ISIN, &f.AmfiCode, &f.RTA, &f.RTACode, &f.Plan, &f.Category); err != nil {
			return nil, fmt.Errorf("failed to scan fund_scheme table results: %w", err)
		}
		schemes = append(schemes, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund_scheme table: %w", err)
	}
	return schemes, nil
}

// CreateScheme inserts a new fund scheme row.
func (s *SchemeRepository) CreateScheme(f model.FundScheme) error {
	_, err := s.db.Exec(
		`INSERT INTO fund_scheme (`+schemeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.ISIN, f.AmfiCode, f.RTA, f.RTACode, f.Plan, f.Category,
	)
	if err != nil {
		return fmt.Errorf("failed to insert into fund_scheme table: %w", err)
	}
	return nil
}
