package repository_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/repository"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/testutil"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d.UTC()
}

func schemeValue(holdingID, date, invested, balance, nav, value string) model.SchemeValue {
	d, _ := time.Parse("2006-01-02", date)
	return model.SchemeValue{
		ID:        testutil.MakeID(),
		HoldingID: holdingID,
		Date:      d.UTC(),
		Invested:  decimal.RequireFromString(invested),
		AvgNAV:    decimal.Zero,
		Balance:   decimal.RequireFromString(balance),
		NAV:       decimal.RequireFromString(nav),
		Value:     decimal.RequireFromString(value),
	}
}

func TestUpsertSchemeValues(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSnapshotRepository(db)

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	first := []model.SchemeValue{
		schemeValue(holding.ID, "2024-01-01", "1000", "100", "10", "1000"),
		schemeValue(holding.ID, "2024-01-02", "1000", "100", "10.5", "1050"),
	}
	if _, err := repo.UpsertSchemeValues(first); err != nil {
		t.Fatalf("UpsertSchemeValues() error = %v", err)
	}

	// Rewriting the same dates replaces rows instead of duplicating them.
	second := []model.SchemeValue{
		schemeValue(holding.ID, "2024-01-02", "1000", "100", "11", "1100"),
	}
	if _, err := repo.UpsertSchemeValues(second); err != nil {
		t.Fatalf("UpsertSchemeValues() error = %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM scheme_value WHERE holding_id = ?`, holding.ID).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("rows = %d, want 2", count)
	}

	latest, err := repo.GetLatestSchemeValue(holding.ID)
	if err != nil {
		t.Fatalf("GetLatestSchemeValue() error = %v", err)
	}
	if latest == nil {
		t.Fatal("no latest row")
	}
	if !latest.Value.Equal(decimal.RequireFromString("1100")) {
		t.Errorf("latest value = %s, want 1100", latest.Value)
	}
}

func TestGetLatestSchemeValueBefore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSnapshotRepository(db)

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	rows := []model.SchemeValue{
		schemeValue(holding.ID, "2024-01-01", "1000", "100", "10", "1000"),
		schemeValue(holding.ID, "2024-01-02", "1000", "100", "10.5", "1050"),
	}
	if _, err := repo.UpsertSchemeValues(rows); err != nil {
		t.Fatalf("UpsertSchemeValues() error = %v", err)
	}

	t.Run("strictly before excludes the boundary", func(t *testing.T) {
		got, err := repo.GetLatestSchemeValueBefore(holding.ID, day(t, "2024-01-02"))
		if err != nil {
			t.Fatalf("GetLatestSchemeValueBefore() error = %v", err)
		}
		if got == nil {
			t.Fatal("no row found")
		}
		if got.Date.Format("2006-01-02") != "2024-01-01" {
			t.Errorf("date = %s, want 2024-01-01", got.Date.Format("2006-01-02"))
		}
	})

	t.Run("nil when no earlier history exists", func(t *testing.T) {
		got, err := repo.GetLatestSchemeValueBefore(holding.ID, day(t, "2024-01-01"))
		if err != nil {
			t.Fatalf("GetLatestSchemeValueBefore() error = %v", err)
		}
		if got != nil {
			t.Errorf("got row dated %s, want nil", got.Date.Format("2006-01-02"))
		}
	})
}

func TestDeleteSchemeValuesAfter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSnapshotRepository(db)

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	rows := []model.SchemeValue{
		schemeValue(holding.ID, "2024-01-01", "1000", "100", "10", "1000"),
		schemeValue(holding.ID, "2024-01-02", "1000", "100", "10.5", "1050"),
		schemeValue(holding.ID, "2024-01-03", "1000", "100", "11", "1100"),
	}
	if _, err := repo.UpsertSchemeValues(rows); err != nil {
		t.Fatalf("UpsertSchemeValues() error = %v", err)
	}

	if err := repo.DeleteSchemeValuesAfter(holding.ID, day(t, "2024-01-01")); err != nil {
		t.Fatalf("DeleteSchemeValuesAfter() error = %v", err)
	}

	latest, err := repo.GetLatestSchemeValue(holding.ID)
	if err != nil {
		t.Fatalf("GetLatestSchemeValue() error = %v", err)
	}
	if latest == nil {
		t.Fatal("boundary row deleted")
	}
	if latest.Date.Format("2006-01-02") != "2024-01-01" {
		t.Errorf("latest date = %s, want 2024-01-01 (boundary kept)", latest.Date.Format("2006-01-02"))
	}
}

func TestGetSchemeValueTuples(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSnapshotRepository(db)

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holdingA := testutil.NewHolding(t, db, folio.ID, scheme.ID)
	holdingB := testutil.NewHolding(t, db, folio.ID, testutil.NewScheme().Build(t, db).ID)

	otherPortfolio := testutil.NewPortfolio().Build(t, db)
	otherFolio := testutil.NewFolio(otherPortfolio.ID).Build(t, db)
	holdingC := testutil.NewHolding(t, db, otherFolio.ID, scheme.ID)

	rows := []model.SchemeValue{
		schemeValue(holdingA.ID, "2024-01-01", "1000", "100", "10", "1000"),
		schemeValue(holdingB.ID, "2024-01-01", "500", "50", "10", "500"),
		schemeValue(holdingC.ID, "2024-01-01", "200", "20", "10", "200"),
		schemeValue(holdingA.ID, "2023-12-31", "1000", "100", "10", "1000"),
	}
	if _, err := repo.UpsertSchemeValues(rows); err != nil {
		t.Fatalf("UpsertSchemeValues() error = %v", err)
	}

	t.Run("scoped to one portfolio and date onward", func(t *testing.T) {
		tuples, err := repo.GetSchemeValueTuples(day(t, "2024-01-01"), portfolio.ID)
		if err != nil {
			t.Fatalf("GetSchemeValueTuples() error = %v", err)
		}
		// Two holdings of the scoped portfolio on Jan 1; the Dec 31 row and
		// the other portfolio's holding are excluded.
		if len(tuples) != 2 {
			t.Fatalf("tuples = %d, want 2", len(tuples))
		}
		for _, tu := range tuples {
			if tu.ParentID != folio.ID {
				t.Errorf("parent = %s, want folio %s", tu.ParentID, folio.ID)
			}
		}
	})

	t.Run("unscoped covers every portfolio", func(t *testing.T) {
		tuples, err := repo.GetSchemeValueTuples(day(t, "2024-01-01"), "")
		if err != nil {
			t.Fatalf("GetSchemeValueTuples() error = %v", err)
		}
		if len(tuples) != 3 {
			t.Errorf("tuples = %d, want 3", len(tuples))
		}
	})
}

func TestUpdatePortfolioXIRR(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSnapshotRepository(db)

	portfolio := testutil.NewPortfolio().Build(t, db)
	d := day(t, "2024-01-01")

	// Fresh IDs per batch, the way the recompute run writes them.
	makeValues := func() []model.PortfolioValue {
		return []model.PortfolioValue{{
			ID:          testutil.MakeID(),
			PortfolioID: portfolio.ID,
			Date:        d,
			Invested:    decimal.RequireFromString("1000"),
			Value:       decimal.RequireFromString("1100"),
		}}
	}
	if _, err := repo.UpsertPortfolioValues(makeValues()); err != nil {
		t.Fatalf("UpsertPortfolioValues() error = %v", err)
	}

	rate := 0.12
	if err := repo.UpdatePortfolioXIRR(portfolio.ID, d, &rate, nil); err != nil {
		t.Fatalf("UpdatePortfolioXIRR() error = %v", err)
	}

	got, err := repo.GetLatestPortfolioValue(portfolio.ID)
	if err != nil {
		t.Fatalf("GetLatestPortfolioValue() error = %v", err)
	}
	if got == nil {
		t.Fatal("no portfolio value row")
	}
	if got.XIRR == nil || *got.XIRR != rate {
		t.Errorf("xirr = %v, want %v", got.XIRR, rate)
	}
	if got.LiveXIRR != nil {
		t.Errorf("live xirr = %v, want nil", *got.LiveXIRR)
	}

	// Re-upserting invested/value must not clobber the stored rate.
	if _, err := repo.UpsertPortfolioValues(makeValues()); err != nil {
		t.Fatalf("UpsertPortfolioValues() error = %v", err)
	}
	got, err = repo.GetLatestPortfolioValue(portfolio.ID)
	if err != nil {
		t.Fatalf("GetLatestPortfolioValue() error = %v", err)
	}
	if got.XIRR == nil || *got.XIRR != rate {
		t.Errorf("xirr after re-upsert = %v, want %v", got.XIRR, rate)
	}
}
