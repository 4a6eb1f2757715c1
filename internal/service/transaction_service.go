package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/apperrors"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/repository"
)

// importHeaders is the required column order for transaction CSV imports.
var importHeaders = []string{"holding_id", "date", "kind", "amount", "units", "nav"}

// ImportResult summarizes a CSV import. DirtyHoldings maps each touched
// holding to the earliest imported transaction date, which is exactly the
// scope a follow-up recomputation needs.
type ImportResult struct {
	Imported      int                  `json:"imported"`
	DirtyHoldings map[string]time.Time `json:"-"`
}

// TransactionService handles transaction ingestion: single entries and CSV
// batch imports. It never mutates derived data itself; callers feed the
// returned dirty-holding dates into the valuation service.
type TransactionService struct {
	transactionRepo *repository.TransactionRepository
	holdingRepo     *repository.HoldingRepository
}

// NewTransactionService creates a new TransactionService with the provided repositories.
func NewTransactionService(
	transactionRepo *repository.TransactionRepository,
	holdingRepo *repository.HoldingRepository,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		holdingRepo:     holdingRepo,
	}
}

// CreateTransaction validates and persists a single transaction. The ID and
// creation timestamp are assigned here; the stored row is returned.
func (s *TransactionService) CreateTransaction(txn model.Transaction) (model.Transaction, error) {
	if _, ok := model.ValidTxnKinds[txn.Kind]; !ok {
		return model.Transaction{}, apperrors.ErrInvalidTxnKind
	}
	if txn.Date.IsZero() {
		return model.Transaction{}, apperrors.ErrMissingRequiredField
	}
	if _, err := s.holdingRepo.GetHolding(txn.HoldingID); err != nil {
		return model.Transaction{}, err
	}

	txn.ID = uuid.NewString()
	txn.CreatedAt = time.Now().UTC()

	if err := s.transactionRepo.CreateTransaction(txn); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

// ImportCSV parses and stores a transaction batch. Expected columns:
//
//	holding_id, date (YYYY-MM-DD), kind, amount, units, nav
//
// An empty amount column produces a NULL amount (a balance-only entry).
// The whole file is validated before anything is written; a bad row rejects
// the entire import so a half-applied file never dirties the history.
func (s *TransactionService) ImportCSV(r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) != len(importHeaders) {
		return ImportResult{}, apperrors.ErrInvalidCSVHeaders
	}
	for i, h := range header {
		if strings.TrimSpace(strings.ToLower(h)) != importHeaders[i] {
			return ImportResult{}, apperrors.ErrInvalidCSVHeaders
		}
	}

	now := time.Now().UTC()
	transactions := []model.Transaction{}
	dirty := make(map[string]time.Time)
	knownHoldings := make(map[string]bool)

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ImportResult{}, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		txn, err := s.parseImportRecord(record)
		if err != nil {
			return ImportResult{}, fmt.Errorf("CSV line %d: %w", line, err)
		}

		if !knownHoldings[txn.HoldingID] {
			if _, err := s.holdingRepo.GetHolding(txn.HoldingID); err != nil {
				return ImportResult{}, fmt.Errorf("CSV line %d: %w", line, err)
			}
			knownHoldings[txn.HoldingID] = true
		}

		txn.ID = uuid.NewString()
		// Stagger creation times so same-date rows replay in file order.
		txn.CreatedAt = now.Add(time.Duration(len(transactions)) * time.Microsecond)
		transactions = append(transactions, txn)

		if first, ok := dirty[txn.HoldingID]; !ok || txn.Date.Before(first) {
			dirty[txn.HoldingID] = txn.Date
		}
	}

	if err := s.transactionRepo.CreateTransactions(transactions); err != nil {
		return ImportResult{}, err
	}

	return ImportResult{Imported: len(transactions), DirtyHoldings: dirty}, nil
}

func (s *TransactionService) parseImportRecord(record []string) (model.Transaction, error) {
	var txn model.Transaction
	var err error

	txn.HoldingID = strings.TrimSpace(record[0])
	if txn.HoldingID == "" {
		return txn, apperrors.ErrEmptyID
	}

	txn.Date, err = time.Parse("2006-01-02", strings.TrimSpace(record[1]))
	if err != nil {
		return txn, fmt.Errorf("failed to parse date: %w", err)
	}
	txn.Date = txn.Date.UTC()

	txn.Kind, err = model.ParseTxnKind(strings.TrimSpace(record[2]))
	if err != nil {
		return txn, err
	}

	if amountStr := strings.TrimSpace(record[3]); amountStr != "" {
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return txn, fmt.Errorf("failed to parse amount: %w", err)
		}
		txn.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
	}

	if txn.Units, err = decimal.NewFromString(strings.TrimSpace(record[4])); err != nil {
		return txn, fmt.Errorf("failed to parse units: %w", err)
	}
	if txn.NAV, err = decimal.NewFromString(strings.TrimSpace(record[5])); err != nil {
		return txn, fmt.Errorf("failed to parse nav: %w", err)
	}

	return txn, nil
}

// GetTransactionsForHolding returns the ordered transaction history of one holding.
func (s *TransactionService) GetTransactionsForHolding(holdingID string) ([]model.Transaction, error) {
	if _, err := s.holdingRepo.GetHolding(holdingID); err != nil {
		return nil, err
	}
	return s.transactionRepo.GetTransactionsForHolding(holdingID)
}
