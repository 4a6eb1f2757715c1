package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/repository"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/testutil"
)

func fixedClock(date string) func() time.Time {
	day, _ := time.Parse("2006-01-02", date)
	return func() time.Time { return day.UTC() }
}

func assertDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

// TestRecompute_FullPipeline runs the whole pipeline against a real database:
// two purchases and a partial redemption must produce the documented daily
// series, FIFO cost recovery, aggregate rows and return rates.
func TestRecompute_FullPipeline(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestValuationService(t, db)
	svc.SetClock(fixedClock("2024-01-10"))

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	testutil.NewTransaction(holding.ID).On("2024-01-01").Purchase("1000", "100", "10").Build(t, db)
	testutil.NewTransaction(holding.ID).On("2024-01-05").Purchase("600", "50", "12").Build(t, db)
	testutil.NewTransaction(holding.ID).On("2024-01-08").Redemption("1320", "-120", "11").Build(t, db)

	testutil.AddNAV(t, db, scheme.ID, "2024-01-01", "10")
	testutil.AddNAV(t, db, scheme.ID, "2024-01-05", "12")
	testutil.AddNAV(t, db, scheme.ID, "2024-01-08", "11")
	testutil.AddNAV(t, db, scheme.ID, "2024-01-10", "11.5")

	report, err := svc.Recompute(context.Background(), model.RecomputeRequest{})
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	if got, want := report.RowsWritten[holding.ID], 10; got != want {
		t.Errorf("rows written = %d, want %d", got, want)
	}
	if len(report.FailedHoldings) != 0 {
		t.Errorf("failed holdings = %v, want none", report.FailedHoldings)
	}

	snapshotRepo := repository.NewSnapshotRepository(db)

	t.Run("daily series follows ledger and prices", func(t *testing.T) {
		day5, _ := time.Parse("2006-01-02", "2024-01-05")
		sv, err := snapshotRepo.GetLatestSchemeValueBefore(holding.ID, day5)
		if err != nil {
			t.Fatalf("GetLatestSchemeValueBefore() error = %v", err)
		}
		if sv == nil {
			t.Fatal("no snapshot before day 5")
		}
		// Days 1-4 hold the first purchase only.
		assertDecimal(t, "pre-day-5 invested", sv.Invested, "1000")
		assertDecimal(t, "pre-day-5 balance", sv.Balance, "100")

		latest, err := snapshotRepo.GetLatestSchemeValue(holding.ID)
		if err != nil {
			t.Fatalf("GetLatestSchemeValue() error = %v", err)
		}
		if latest == nil {
			t.Fatal("no latest snapshot")
		}
		if got := latest.Date.Format("2006-01-02"); got != "2024-01-10" {
			t.Errorf("latest snapshot date = %s, want 2024-01-10", got)
		}
		// Selling 120 units FIFO recovers 100*10 + 20*12 = 1240 of cost.
		assertDecimal(t, "final invested", latest.Invested, "360")
		assertDecimal(t, "final balance", latest.Balance, "30")
		assertDecimal(t, "final avg nav", latest.AvgNAV, "12")
		// 30 units at the forward-filled 11.5 NAV.
		assertDecimal(t, "final value", latest.Value, "345")
	})

	t.Run("aggregates mirror the scheme series", func(t *testing.T) {
		pv, err := snapshotRepo.GetLatestPortfolioValue(portfolio.ID)
		if err != nil {
			t.Fatalf("GetLatestPortfolioValue() error = %v", err)
		}
		if pv == nil {
			t.Fatal("no portfolio value row")
		}
		assertDecimal(t, "portfolio invested", pv.Invested, "360")
		assertDecimal(t, "portfolio value", pv.Value, "345")
		if pv.XIRR == nil {
			t.Error("portfolio XIRR = nil, want a computed rate")
		}
		if pv.LiveXIRR == nil {
			t.Error("portfolio live XIRR = nil, want a computed rate for an open holding")
		}

		var folioCount int
		if err := db.QueryRow(`SELECT COUNT(*) FROM folio_value WHERE folio_id = ?`, folio.ID).Scan(&folioCount); err != nil {
			t.Fatal(err)
		}
		if folioCount != 10 {
			t.Errorf("folio rows = %d, want 10", folioCount)
		}
	})

	t.Run("realized gain recorded for the disposal", func(t *testing.T) {
		gains, err := repository.NewRealizedGainRepository(db).GetRealizedGains(holding.ID)
		if err != nil {
			t.Fatalf("GetRealizedGains() error = %v", err)
		}
		if len(gains) != 1 {
			t.Fatalf("realized gains = %d, want 1", len(gains))
		}
		assertDecimal(t, "disposal units", gains[0].Units, "120")
		assertDecimal(t, "cost basis", gains[0].CostBasis, "1240")
		assertDecimal(t, "proceeds", gains[0].Proceeds, "1320")
		assertDecimal(t, "gain", gains[0].Gain, "80")
	})

	t.Run("holding row carries current valuation", func(t *testing.T) {
		h, err := repository.NewHoldingRepository(db).GetHolding(holding.ID)
		if err != nil {
			t.Fatalf("GetHolding() error = %v", err)
		}
		if h.Valuation == nil {
			t.Fatal("holding valuation = nil")
		}
		assertDecimal(t, "holding valuation", *h.Valuation, "345")
		if h.XIRRLive == nil {
			t.Error("holding live XIRR = nil, want a computed rate")
		}
	})

	t.Run("summary in report", func(t *testing.T) {
		if len(report.Portfolios) != 1 {
			t.Fatalf("portfolio summaries = %d, want 1", len(report.Portfolios))
		}
		s := report.Portfolios[0]
		assertDecimal(t, "summary invested", decimal.RequireFromString(s.Invested), "360")
		assertDecimal(t, "summary value", decimal.RequireFromString(s.Value), "345")
	})
}

// TestRecompute_FirstRunAnchorsAtFirstTransaction verifies that an unscoped
// run with no prior snapshots starts the daily series at the first transaction
// instead of padding the default window with empty rows.
func TestRecompute_FirstRunAnchorsAtFirstTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestValuationService(t, db)
	svc.SetClock(fixedClock("2024-01-05"))

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	testutil.NewTransaction(holding.ID).On("2024-01-01").Purchase("1000", "100", "10").Build(t, db)
	testutil.AddNAV(t, db, scheme.ID, "2024-01-01", "10")

	report, err := svc.Recompute(context.Background(), model.RecomputeRequest{})
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	// Jan 1 through the fixed "today" of Jan 5, nothing earlier.
	if got, want := report.RowsWritten[holding.ID], 5; got != want {
		t.Errorf("rows written = %d, want %d", got, want)
	}
	for _, table := range []string{"scheme_value", "folio_value", "portfolio_value"} {
		var minDate string
		if err := db.QueryRow(`SELECT MIN(date) FROM ` + table).Scan(&minDate); err != nil {
			t.Fatal(err)
		}
		if minDate != "2024-01-01" {
			t.Errorf("%s min date = %s, want 2024-01-01", table, minDate)
		}
	}
}

// TestRecompute_Idempotent verifies that running the same recomputation twice
// leaves identical derived rows: the pipeline is a pure function of the
// transaction and price history.
func TestRecompute_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestValuationService(t, db)
	svc.SetClock(fixedClock("2024-01-10"))

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	testutil.NewTransaction(holding.ID).On("2024-01-01").Purchase("1000", "100", "10").Build(t, db)
	testutil.AddNAV(t, db, scheme.ID, "2024-01-01", "10")

	snapshot := func() (count int, invested, value string) {
		t.Helper()
		if err := db.QueryRow(`SELECT COUNT(*) FROM scheme_value`).Scan(&count); err != nil {
			t.Fatal(err)
		}
		err := db.QueryRow(
			`SELECT invested, value FROM scheme_value WHERE holding_id = ? ORDER BY date DESC LIMIT 1`, holding.ID,
		).Scan(&invested, &value)
		if err != nil {
			t.Fatal(err)
		}
		return count, invested, value
	}

	if _, err := svc.Recompute(context.Background(), model.RecomputeRequest{}); err != nil {
		t.Fatalf("first Recompute() error = %v", err)
	}
	firstCount, firstInvested, firstValue := snapshot()

	if _, err := svc.Recompute(context.Background(), model.RecomputeRequest{}); err != nil {
		t.Fatalf("second Recompute() error = %v", err)
	}
	secondCount, secondInvested, secondValue := snapshot()

	if firstCount != secondCount {
		t.Errorf("row count changed between runs: %d -> %d", firstCount, secondCount)
	}
	if firstInvested != secondInvested || firstValue != secondValue {
		t.Errorf("values changed between runs: %s/%s -> %s/%s", firstInvested, firstValue, secondInvested, secondValue)
	}

	var folioCount, portfolioCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM folio_value WHERE folio_id = ?`, folio.ID).Scan(&folioCount); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM portfolio_value WHERE portfolio_id = ?`, portfolio.ID).Scan(&portfolioCount); err != nil {
		t.Fatal(err)
	}
	if folioCount != firstCount || portfolioCount != firstCount {
		t.Errorf("aggregate row counts = %d/%d, want %d each", folioCount, portfolioCount, firstCount)
	}
}

// TestRecompute_ExitTruncatesStaleRows verifies that when a later import
// empties a holding mid-history, rows the previous run persisted beyond the
// exit date are deleted at every level of the hierarchy.
func TestRecompute_ExitTruncatesStaleRows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestValuationService(t, db)
	svc.SetClock(fixedClock("2024-01-10"))

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	testutil.NewTransaction(holding.ID).On("2024-01-01").Purchase("1000", "100", "10").Build(t, db)
	testutil.AddNAV(t, db, scheme.ID, "2024-01-01", "10")

	if _, err := svc.Recompute(context.Background(), model.RecomputeRequest{}); err != nil {
		t.Fatalf("first Recompute() error = %v", err)
	}

	// The holding exits on Jan 6; the rows for Jan 7-10 are now stale.
	testutil.NewTransaction(holding.ID).On("2024-01-06").Redemption("1000", "-100", "10").Build(t, db)
	dirtyDate, _ := time.Parse("2006-01-02", "2024-01-06")

	report, err := svc.Recompute(context.Background(), model.RecomputeRequest{
		Auto:          true,
		DirtyHoldings: map[string]time.Time{holding.ID: dirtyDate},
	})
	if err != nil {
		t.Fatalf("second Recompute() error = %v", err)
	}
	if len(report.FailedHoldings) != 0 {
		t.Fatalf("failed holdings = %v, want none", report.FailedHoldings)
	}

	for _, table := range []string{"scheme_value", "folio_value", "portfolio_value"} {
		var maxDate string
		if err := db.QueryRow(`SELECT MAX(date) FROM ` + table).Scan(&maxDate); err != nil {
			t.Fatal(err)
		}
		if maxDate != "2024-01-06" {
			t.Errorf("%s max date = %s, want 2024-01-06", table, maxDate)
		}
	}

	snapshotRepo := repository.NewSnapshotRepository(db)
	sv, err := snapshotRepo.GetLatestSchemeValue(holding.ID)
	if err != nil {
		t.Fatalf("GetLatestSchemeValue() error = %v", err)
	}
	if sv == nil {
		t.Fatal("no exit snapshot")
	}
	assertDecimal(t, "exit balance", sv.Balance, "0")
	assertDecimal(t, "exit value", sv.Value, "0")

	// Nothing live is left, so the live rate must be "not computable".
	pv, err := snapshotRepo.GetLatestPortfolioValue(portfolio.ID)
	if err != nil {
		t.Fatalf("GetLatestPortfolioValue() error = %v", err)
	}
	if pv == nil {
		t.Fatal("no portfolio value row")
	}
	if pv.LiveXIRR != nil {
		t.Errorf("live XIRR = %v, want nil after full exit", *pv.LiveXIRR)
	}
}

// TestRecompute_IsolatesHoldings verifies that a holding with no usable data
// is skipped while the rest of the portfolio completes.
func TestRecompute_IsolatesHoldings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestValuationService(t, db)
	svc.SetClock(fixedClock("2024-01-05"))

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	active := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	emptyScheme := testutil.NewScheme().Build(t, db)
	empty := testutil.NewHolding(t, db, folio.ID, emptyScheme.ID)

	testutil.NewTransaction(active.ID).On("2024-01-01").Purchase("500", "50", "10").Build(t, db)
	testutil.AddNAV(t, db, scheme.ID, "2024-01-01", "10")

	report, err := svc.Recompute(context.Background(), model.RecomputeRequest{})
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	if got, want := report.RowsWritten[active.ID], 5; got != want {
		t.Errorf("active holding rows written = %d, want %d", got, want)
	}
	if len(report.HoldingsSkipped) != 1 || report.HoldingsSkipped[0] != empty.ID {
		t.Errorf("skipped = %v, want [%s]", report.HoldingsSkipped, empty.ID)
	}
}

// TestRecompute_OversellFlagged verifies that selling more units than were
// ever acquired surfaces as a data-quality flag, not a failure.
func TestRecompute_OversellFlagged(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestValuationService(t, db)
	svc.SetClock(fixedClock("2024-01-05"))

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	testutil.NewTransaction(holding.ID).On("2024-01-01").Purchase("100", "10", "10").Build(t, db)
	testutil.NewTransaction(holding.ID).On("2024-01-02").Redemption("150", "-15", "10").Build(t, db)
	testutil.AddNAV(t, db, scheme.ID, "2024-01-01", "10")

	report, err := svc.Recompute(context.Background(), model.RecomputeRequest{})
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if len(report.FailedHoldings) != 0 {
		t.Fatalf("failed holdings = %v, want none", report.FailedHoldings)
	}

	found := false
	for _, flag := range report.DataQuality {
		if flag.HoldingID == holding.ID && flag.Date == "2024-01-02" {
			found = true
		}
	}
	if !found {
		t.Errorf("no oversell data-quality flag in %v", report.DataQuality)
	}
}
