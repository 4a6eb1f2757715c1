package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the embedded production migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE portfolio (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_archived INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE folio (
			id TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL,
			amc TEXT NOT NULL DEFAULT '',
			number TEXT NOT NULL,
			pan TEXT NOT NULL DEFAULT '',
			kyc INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (portfolio_id) REFERENCES portfolio(id),
			UNIQUE (portfolio_id, number)
		);

		CREATE TABLE fund_scheme (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			isin TEXT NOT NULL DEFAULT '',
			amfi_code TEXT NOT NULL DEFAULT '',
			rta TEXT NOT NULL DEFAULT '',
			rta_code TEXT NOT NULL DEFAULT '',
			plan TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE holding (
			id TEXT PRIMARY KEY,
			folio_id TEXT NOT NULL,
			scheme_id TEXT NOT NULL,
			valuation TEXT,
			xirr REAL,
			valuation_date TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (folio_id) REFERENCES folio(id),
			FOREIGN KEY (scheme_id) REFERENCES fund_scheme(id),
			UNIQUE (folio_id, scheme_id)
		);

		CREATE TABLE txn (
			id TEXT PRIMARY KEY,
			holding_id TEXT NOT NULL,
			date TEXT NOT NULL,
			kind TEXT NOT NULL,
			amount TEXT,
			units TEXT NOT NULL DEFAULT '0',
			nav TEXT NOT NULL DEFAULT '0',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (holding_id) REFERENCES holding(id)
		);

		CREATE TABLE nav_history (
			id TEXT PRIMARY KEY,
			scheme_id TEXT NOT NULL,
			date TEXT NOT NULL,
			nav TEXT NOT NULL,
			FOREIGN KEY (scheme_id) REFERENCES fund_scheme(id),
			UNIQUE (scheme_id, date)
		);

		CREATE TABLE scheme_value (
			id TEXT PRIMARY KEY,
			holding_id TEXT NOT NULL,
			date TEXT NOT NULL,
			invested TEXT NOT NULL,
			avg_nav TEXT NOT NULL,
			balance TEXT NOT NULL,
			nav TEXT NOT NULL,
			value TEXT NOT NULL,
			FOREIGN KEY (holding_id) REFERENCES holding(id),
			UNIQUE (holding_id, date)
		);

		CREATE TABLE folio_value (
			id TEXT PRIMARY KEY,
			folio_id TEXT NOT NULL,
			date TEXT NOT NULL,
			invested TEXT NOT NULL,
			value TEXT NOT NULL,
			FOREIGN KEY (folio_id) REFERENCES folio(id),
			UNIQUE (folio_id, date)
		);

		CREATE TABLE portfolio_value (
			id TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL,
			date TEXT NOT NULL,
			invested TEXT NOT NULL,
			value TEXT NOT NULL,
			xirr REAL,
			live_xirr REAL,
			FOREIGN KEY (portfolio_id) REFERENCES portfolio(id),
			UNIQUE (portfolio_id, date)
		);

		CREATE TABLE realized_gain (
			id TEXT PRIMARY KEY,
			holding_id TEXT NOT NULL,
			date TEXT NOT NULL,
			units TEXT NOT NULL,
			cost_basis TEXT NOT NULL,
			proceeds TEXT NOT NULL,
			gain TEXT NOT NULL,
			FOREIGN KEY (holding_id) REFERENCES holding(id)
		);
	`

	_, err := db.Exec(schema)
	return err
}
