package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/shopspring/decimal"
)

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	portfolio := testutil.NewPortfolio().WithName("Retirement").Build(t, db)
type PortfolioBuilder struct {
	ID          string
	Name        string
	Description string
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:          MakeID(),
		Name:        "Test Portfolio " + randomAlphanumeric(6),
		Description: "Test description",
	}
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// Build inserts the portfolio and returns the model.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO portfolio (id, name, description) VALUES (?, ?, ?)`,
		b.ID, b.Name, b.Description,
	)
	if err != nil {
		t.Fatalf("Failed to insert test portfolio: %v", err)
	}
	return model.Portfolio{ID: b.ID, Name: b.Name, Description: b.Description}
}

// FolioBuilder provides a fluent interface for creating test folios.
// The PAN is stored as-is; repository-level encryption is covered by the
// folio repository tests with a real key.
type FolioBuilder struct {
	ID          string
	PortfolioID string
	AMC         string
	Number      string
}

// NewFolio creates a FolioBuilder attached to the given portfolio.
func NewFolio(portfolioID string) *FolioBuilder {
	return &FolioBuilder{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		AMC:         "Test AMC",
		Number:      "F" + randomAlphanumeric(8),
	}
}

// WithNumber sets a custom folio number.
func (b *FolioBuilder) WithNumber(number string) *FolioBuilder {
	b.Number = number
	return b
}

// Build inserts the folio and returns the model.
func (b *FolioBuilder) Build(t *testing.T, db *sql.DB) model.Folio {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO folio (id, portfolio_id, amc, number) VALUES (?, ?, ?, ?)`,
		b.ID, b.PortfolioID, b.AMC, b.Number,
	)
	if err != nil {
		t.Fatalf("Failed to insert test folio: %v", err)
	}
	return model.Folio{ID: b.ID, PortfolioID: b.PortfolioID, AMC: b.AMC, Number: b.Number}
}

// SchemeBuilder provides a fluent interface for creating test fund schemes.
type SchemeBuilder struct {
	ID       string
	Name     string
	ISIN     string
	AmfiCode string
}

// NewScheme creates a SchemeBuilder with sensible defaults.
func NewScheme() *SchemeBuilder {
	return &SchemeBuilder{
		ID:   MakeID(),
		Name: "Test Scheme " + randomAlphanumeric(6),
		ISIN: "INF" + randomAlphanumeric(9),
	}
}

// WithAmfiCode sets the AMFI code, making the scheme refreshable.
func (b *SchemeBuilder) WithAmfiCode(code string) *SchemeBuilder {
	b.AmfiCode = code
	return b
}

// Build inserts the scheme and returns the model.
func (b *SchemeBuilder) Build(t *testing.T, db *sql.DB) model.FundScheme {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO fund_scheme (id, name, isin, amfi_code) VALUES (?, ?, ?, ?)`,
		b.ID, b.Name, b.ISIN, b.AmfiCode,
	)
	if err != nil {
		t.Fatalf("Failed to insert test scheme: %v", err)
	}
	return model.FundScheme{ID: b.ID, Name: b.Name, ISIN: b.ISIN, AmfiCode: b.AmfiCode}
}

// NewHolding inserts a holding for the given folio and scheme and returns the model.
func NewHolding(t *testing.T, db *sql.DB, folioID, schemeID string) model.Holding {
	t.Helper()
	id := MakeID()
	_, err := db.Exec(
		`INSERT INTO holding (id, folio_id, scheme_id) VALUES (?, ?, ?)`,
		id, folioID, schemeID,
	)
	if err != nil {
		t.Fatalf("Failed to insert test holding: %v", err)
	}
	return model.Holding{ID: id, FolioID: folioID, SchemeID: schemeID}
}

// TransactionBuilder provides a fluent interface for creating test transactions.
//
// Example usage:
//
//	testutil.NewTransaction(holding.ID).
//	    On("2024-01-01").
//	    Purchase("1000", "100", "10").
//	    Build(t, db)
type TransactionBuilder struct {
	ID        string
	HoldingID string
	Date      string
	Kind      model.TxnKind
	Amount    *string
	Units     string
	NAV       string
	CreatedAt time.Time
}

// NewTransaction creates a TransactionBuilder for the given holding.
func NewTransaction(holdingID string) *TransactionBuilder {
	return &TransactionBuilder{
		ID:        MakeID(),
		HoldingID: holdingID,
		Date:      "2024-01-01",
		Kind:      model.KindPurchase,
		Units:     "0",
		NAV:       "0",
		CreatedAt: time.Now().UTC(),
	}
}

// On sets the transaction date (YYYY-MM-DD).
func (b *TransactionBuilder) On(date string) *TransactionBuilder {
	b.Date = date
	return b
}

// Purchase configures an acquisition: amount paid, units bought, price.
func (b *TransactionBuilder) Purchase(amount, units, nav string) *TransactionBuilder {
	b.Kind = model.KindPurchase
	b.Amount = &amount
	b.Units = units
	b.NAV = nav
	return b
}

// Redemption configures a disposal: amount is stored negative, units sold, price.
func (b *TransactionBuilder) Redemption(amount, units, nav string) *TransactionBuilder {
	b.Kind = model.KindRedemption
	negated := "-" + amount
	b.Amount = &negated
	b.Units = units
	b.NAV = nav
	return b
}

// WithKind overrides the transaction kind.
func (b *TransactionBuilder) WithKind(kind model.TxnKind) *TransactionBuilder {
	b.Kind = kind
	return b
}

// NullAmount clears the amount, producing a balance-only entry.
func (b *TransactionBuilder) NullAmount() *TransactionBuilder {
	b.Amount = nil
	return b
}

// Build inserts the transaction and returns the model.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	var amount any
	if b.Amount != nil {
		amount = *b.Amount
	}
	_, err := db.Exec(
		`INSERT INTO txn (id, holding_id, date, kind, amount, units, nav, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.HoldingID, b.Date, string(b.Kind), amount, b.Units, b.NAV,
		b.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		t.Fatalf("Failed to insert test transaction: %v", err)
	}

	date, _ := time.Parse("2006-01-02", b.Date)
	txn := model.Transaction{
		ID:        b.ID,
		HoldingID: b.HoldingID,
		Date:      date.UTC(),
		Kind:      b.Kind,
		Units:     decimal.RequireFromString(b.Units),
		NAV:       decimal.RequireFromString(b.NAV),
		CreatedAt: b.CreatedAt,
	}
	if b.Amount != nil {
		txn.Amount = decimal.NullDecimal{Decimal: decimal.RequireFromString(*b.Amount), Valid: true}
	}
	return txn
}

// AddNAV inserts one NAV observation for a scheme.
func AddNAV(t *testing.T, db *sql.DB, schemeID, date, nav string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO nav_history (id, scheme_id, date, nav) VALUES (?, ?, ?, ?)`,
		MakeID(), schemeID, date, nav,
	)
	if err != nil {
		t.Fatalf("Failed to insert test nav: %v", err)
	}
}
