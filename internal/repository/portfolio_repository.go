package repository

import (
	"database/sql"
	"fmt"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/apperrors"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetPortfolios retrieves all portfolios, excluding archived ones unless the
// filter asks for them.
func (s *PortfolioRepository) GetPortfolios(filter model.PortfolioFilter) ([]model.Portfolio, error) {
	query := `
		SELECT id, name, description, is_archived
		FROM portfolio
	`
	if !filter.IncludeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		var p model.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.IsArchived); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}
		portfolios = append(portfolios, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}
	return portfolios, nil
}

// GetPortfolio retrieves a single portfolio by ID.
func (s *PortfolioRepository) GetPortfolio(portfolioID string) (model.Portfolio, error) {
	var p model.Portfolio
	err := s.db.QueryRow(
		`SELECT id, name, description, is_archived FROM portfolio WHERE id = ?`,
		portfolioID,
	).Scan(&p.ID, &p.Name, &p.Description, &p.IsArchived)
	if err == sql.ErrNoRows {
		return model.Portfolio{}, apperrors.ErrPortfolioNotFound
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to scan portfolio table results: %w", err)
	}
	return p, nil
}

// CreatePortfolio inserts a new portfolio row.
func (s *PortfolioRepository) CreatePortfolio(p model.Portfolio) error {
	_, err := s.db.Exec(
		`INSERT INTO portfolio (id, name, description, is_archived) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.IsArchived,
	)
	if err != nil {
		return fmt.Errorf("failed to insert into portfolio table: %w", err)
	}
	return nil
}
