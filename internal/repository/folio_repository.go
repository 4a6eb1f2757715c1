package repository

import (
	"database/sql"
	"fmt"

	"github.com/fernet/fernet-go"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/apperrors"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
)

// FolioRepository provides data access methods for the folio table.
// The PAN column holds a tax identifier and is encrypted at rest; it is
// encrypted on write and decrypted on read with the configured fernet key.
type FolioRepository struct {
	db   *sql.DB
	keys []*fernet.Key
}

// NewFolioRepository creates a new FolioRepository with the provided database
// connection and fernet key for PAN encryption.
func NewFolioRepository(db *sql.DB, key *fernet.Key) *FolioRepository {
	return &FolioRepository{db: db, keys: []*fernet.Key{key}}
}

func (s *FolioRepository) encryptPAN(pan string) (string, error) {
	if pan == "" {
		return "", nil
	}
	tok, err := fernet.EncryptAndSign([]byte(pan), s.keys[0])
	if err != nil {
		return "", fmt.Errorf("failed to encrypt PAN: %w", err)
	}
	return string(tok), nil
}

func (s *FolioRepository) decryptPAN(stored string) string {
	if stored == "" {
		return ""
	}
	// TTL 0 means tokens never expire; the PAN is durable data, not a session token.
	msg := fernet.VerifyAndDecrypt([]byte(stored), 0, s.keys)
	if msg == nil {
		return ""
	}
	return string(msg)
}

// CreateFolio inserts a new folio row with the PAN encrypted.
func (s *FolioRepository) CreateFolio(f model.Folio) error {
	encryptedPAN, err := s.encryptPAN(f.PAN)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO folio (id, portfolio_id, amc, number, pan, kyc) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.PortfolioID, f.AMC, f.Number, encryptedPAN, f.KYC,
	)
	if err != nil {
		return fmt.Errorf("failed to insert into folio table: %w", err)
	}
	return nil
}

// GetFolio retrieves a single folio by ID with the PAN decrypted.
func (s *FolioRepository) GetFolio(folioID string) (model.Folio, error) {
	query := `
		SELECT id, portfolio_id, amc, number, pan, kyc
		FROM folio
		WHERE id = ?
	`

	var f model.Folio
	var storedPAN string
	err := s.db.QueryRow(query, folioID).Scan(&f.ID, &f.PortfolioID, &f.AMC, &f.Number, &storedPAN, &f.KYC)
	if err == sql.ErrNoRows {
		return model.Folio{}, apperrors.ErrFolioNotFound
	}
	if err != nil {
		return model.Folio{}, fmt.Errorf("failed to scan folio table results: %w", err)
	}

	f.PAN = s.decryptPAN(storedPAN)
	return f, nil
}

// GetFoliosByPortfolio retrieves all folios belonging to one portfolio.
func (s *FolioRepository) GetFoliosByPortfolio(portfolioID string) ([]model.Folio, error) {
	query := `
		SELECT id, portfolio_id, amc, number, pan, kyc
		FROM folio
		WHERE portfolio_id = ?
		ORDER BY number ASC
	`

	rows, err := s.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query folio table: %w", err)
	}
	defer rows.Close()

	folios := []model.Folio{}
	for rows.Next() {
		var f model.Folio
		var storedPAN string
		if err := rows.Scan(&f.ID, &f.PortfolioID, &f.AMC, &f.Number, &storedPAN, &f.KYC); err != nil {
			return nil, fmt.Errorf("failed to scan folio table results: %w", err)
		}
		f.PAN = s.decryptPAN(storedPAN)
		folios = append(folios, f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folio table: %w", err)
	}
	return folios, nil
}
