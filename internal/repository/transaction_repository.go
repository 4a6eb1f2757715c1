package repository

import (
	"database/sql"
	"fmt"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/shopspring/decimal"
)

// TransactionRepository provides data access methods for the txn table.
// Transactions are the immutable source of truth for every valuation run,
// so every read returns rows in deterministic replay order.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const txnColumns = `id, holding_id, date, kind, amount, units, nav, created_at`

// createdAtLayout pads fractional seconds to a fixed width so the stored TEXT
// column sorts lexicographically in chronological order. RFC3339Nano trims
// trailing zeros, which would put "12:00:00.000001Z" before "12:00:00Z".
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var t model.Transaction
	var dateStr, createdAtStr string
	var amountStr sql.NullString
	var unitsStr, navStr string

	err := rows.Scan(
		&t.ID,
		&t.HoldingID,
		&dateStr,
		&t.Kind,
		&amountStr,
		&unitsStr,
		&navStr,
		&createdAtStr,
	)
	if err != nil {
		return t, fmt.Errorf("failed to scan txn table results: %w", err)
	}

	t.Date, err = ParseTime(dateStr)
	if err != nil || t.Date.IsZero() {
		return t, fmt.Errorf("failed to parse date: %w", err)
	}
	t.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return t, fmt.Errorf("failed to parse date: %w", err)
	}

	if amountStr.Valid {
		amount, err := ParseDecimal(amountStr.String)
		if err != nil {
			return t, err
		}
		t.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
	}
	if t.Units, err = ParseDecimal(unitsStr); err != nil {
		return t, err
	}
	if t.NAV, err = ParseDecimal(navStr); err != nil {
		return t, err
	}

	return t, nil
}

// GetTransactionsForHolding retrieves the full transaction history of one holding.
// Rows are ordered by date, then insertion time, then ID, so that same-day
// entries replay in a stable order across runs.
func (s *TransactionRepository) GetTransactionsForHolding(holdingID string) ([]model.Transaction, error) {
	transactionQuery := `
		SELECT ` + txnColumns + `
		FROM txn
		WHERE holding_id = ?
		ORDER BY date ASC, created_at ASC, id ASC
	`

	rows, err := s.db.Query(transactionQuery, holdingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query txn table: %w", err)
	}
	defer rows.Close()

	transactions := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating txn table: %w", err)
	}

	return transactions, nil
}

// GetTransactionsForHoldings retrieves all transactions for the given holding IDs,
// grouped by holding. Used to assemble portfolio-level cash flow series.
// If holdingIDs is empty, returns an empty map.
func (s *TransactionRepository) GetTransactionsForHoldings(holdingIDs []string) (map[string][]model.Transaction, error) {
	if len(holdingIDs) == 0 {
		return make(map[string][]model.Transaction), nil
	}

	transactionQuery := `
		SELECT ` + txnColumns + `
		FROM txn
		WHERE holding_id IN (` + placeholders(len(holdingIDs)) + `)
		ORDER BY date ASC, created_at ASC, id ASC
	`

	transactionArgs := make([]any, len(holdingIDs))
	for i, id := range holdingIDs {
		transactionArgs[i] = id
	}

	rows, err := s.db.Query(transactionQuery, transactionArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query txn table: %w", err)
	}
	defer rows.Close()

	transactionsByHolding := make(map[string][]model.Transaction)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactionsByHolding[t.HoldingID] = append(transactionsByHolding[t.HoldingID], t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating txn table: %w", err)
	}

	return transactionsByHolding, nil
}

// CreateTransaction inserts a single transaction row.
func (s *TransactionRepository) CreateTransaction(t model.Transaction) error {
	return s.createTransaction(s.db, t)
}

// CreateTransactions inserts a batch of transactions atomically. Used by the
// CSV importer so a half-parsed file never leaves a partial history behind.
func (s *TransactionRepository) CreateTransactions(transactions []model.Transaction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range transactions {
		if err := s.createTransaction(tx, t); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction batch: %w", err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *TransactionRepository) createTransaction(db execer, t model.Transaction) error {
	var amount any
	if t.Amount.Valid {
		amount = t.Amount.Decimal.String()
	}

	insertQuery := `
		INSERT INTO txn (id, holding_id, date, kind, amount, units, nav, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(insertQuery,
		t.ID,
		t.HoldingID,
		t.Date.Format("2006-01-02"),
		string(t.Kind),
		amount,
		t.Units.String(),
		t.NAV.String(),
		t.CreatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert into txn table: %w", err)
	}
	return nil
}
