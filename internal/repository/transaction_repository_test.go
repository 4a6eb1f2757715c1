package repository_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/repository"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/testutil"
)

func TestGetTransactionsForHolding_Ordering(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	date, _ := time.Parse("2006-01-02", "2024-03-01")

	// Insert out of file order: the later created_at values first. The
	// timestamps mix whole seconds with fractions of differing widths, which
	// only sort correctly when stored at a fixed width.
	mk := func(kind model.TxnKind, createdAt time.Time) model.Transaction {
		return model.Transaction{
			ID:        testutil.MakeID(),
			HoldingID: holding.ID,
			Date:      date,
			Kind:      kind,
			Amount:    decimal.NullDecimal{Decimal: decimal.RequireFromString("100"), Valid: true},
			Units:     decimal.RequireFromString("10"),
			NAV:       decimal.RequireFromString("10"),
			CreatedAt: createdAt,
		}
	}
	for _, txn := range []model.Transaction{
		mk(model.KindSwitchIn, base.Add(150*time.Microsecond)),
		mk(model.KindRedemption, base.Add(time.Microsecond)),
		mk(model.KindPurchase, base),
	} {
		if err := repo.CreateTransaction(txn); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	stored, err := repo.GetTransactionsForHolding(holding.ID)
	if err != nil {
		t.Fatalf("GetTransactionsForHolding() error = %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("stored = %d, want 3", len(stored))
	}
	// Same date: insertion time breaks the tie, down to sub-second precision.
	want := []model.TxnKind{model.KindPurchase, model.KindRedemption, model.KindSwitchIn}
	for i, kind := range want {
		if stored[i].Kind != kind {
			t.Errorf("order[%d] = %s, want %s", i, stored[i].Kind, kind)
		}
	}
}

func TestCreateTransactions_Atomic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewTransactionRepository(db)

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	date, _ := time.Parse("2006-01-02", "2024-03-01")
	dup := testutil.MakeID()
	batch := []model.Transaction{
		{ID: dup, HoldingID: holding.ID, Date: date, Kind: model.KindPurchase,
			Units: decimal.RequireFromString("10"), NAV: decimal.RequireFromString("10")},
		{ID: dup, HoldingID: holding.ID, Date: date, Kind: model.KindPurchase,
			Units: decimal.RequireFromString("10"), NAV: decimal.RequireFromString("10")},
	}

	if err := repo.CreateTransactions(batch); err == nil {
		t.Fatal("CreateTransactions() error = nil, want primary key violation")
	}

	stored, err := repo.GetTransactionsForHolding(holding.ID)
	if err != nil {
		t.Fatalf("GetTransactionsForHolding() error = %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("stored = %d, want 0 after rolled-back batch", len(stored))
	}
}
