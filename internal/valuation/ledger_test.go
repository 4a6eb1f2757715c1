package valuation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func txn(date string, kind model.TxnKind, amount, units, nav string) model.Transaction {
	day, _ := time.Parse("2006-01-02", date)
	t := model.Transaction{Date: day, Kind: kind, Units: d(units), NAV: d(nav)}
	if amount != "" {
		t.Amount = nd(amount)
	}
	return t
}

// TestLedger_FIFODisposal verifies the canonical FIFO scenario: two
// acquisitions at different prices followed by a disposal that spans both
// lots.
//
// WHY: partial lot consumption is the heart of cost-basis correctness; a
// disposal of 120 units against lots of 100@10 and 50@12 must cost exactly
// 100*10 + 20*12 = 1240 and leave 30 units at average 12.00.
func TestLedger_FIFODisposal(t *testing.T) {
	l := NewLedger()
	l.Apply(txn("2024-01-01", model.KindPurchase, "1000", "100", "10"))
	l.Apply(txn("2024-01-05", model.KindPurchase, "600", "50", "12"))
	l.Apply(txn("2024-01-10", model.KindRedemption, "-1300", "-120", "11"))

	if got, want := l.Invested, d("360"); !got.Equal(want) {
		t.Errorf("invested = %s, want %s", got, want)
	}
	if got, want := l.Balance, d("30"); !got.Equal(want) {
		t.Errorf("balance = %s, want %s", got, want)
	}
	if got, want := l.Average, d("12.00"); !got.Equal(want) {
		t.Errorf("average = %s, want %s", got, want)
	}
	if len(l.Disposals) != 1 {
		t.Fatalf("disposals = %d, want 1", len(l.Disposals))
	}
	disp := l.Disposals[0]
	if got, want := disp.CostBasis, d("1240"); !got.Equal(want) {
		t.Errorf("cost basis = %s, want %s", got, want)
	}
	// proceeds 120*11 = 1320, gain 80
	if got, want := disp.Gain, d("80"); !got.Equal(want) {
		t.Errorf("gain = %s, want %s", got, want)
	}
	if !disp.Uncovered.IsZero() {
		t.Errorf("uncovered = %s, want 0", disp.Uncovered)
	}
}

// TestLedger_PartialLotRemainder verifies that a partially consumed lot
// keeps its remainder at the queue head for the next disposal.
func TestLedger_PartialLotRemainder(t *testing.T) {
	l := NewLedger()
	l.Apply(txn("2024-01-01", model.KindPurchase, "1000", "100", "10"))
	l.Apply(txn("2024-02-01", model.KindRedemption, "-330", "-30", "11"))
	l.Apply(txn("2024-03-01", model.KindRedemption, "-330", "-30", "11"))

	// Each disposal consumes 30 units from the same 100@10 lot.
	if got, want := l.Invested, d("400"); !got.Equal(want) {
		t.Errorf("invested = %s, want %s", got, want)
	}
	if got, want := l.Balance, d("40"); !got.Equal(want) {
		t.Errorf("balance = %s, want %s", got, want)
	}
	if got := l.OpenLots(); got != 1 {
		t.Errorf("open lots = %d, want 1", got)
	}
}

// TestLedger_Oversell verifies the ignore-remainder policy: disposing more
// units than the lot queue holds drops the uncovered remainder from cost
// and flags it on the disposal, without failing.
func TestLedger_Oversell(t *testing.T) {
	l := NewLedger()
	l.Apply(txn("2024-01-01", model.KindPurchase, "100", "10", "10"))
	l.Apply(txn("2024-02-01", model.KindRedemption, "-165", "-15", "11"))

	if len(l.Disposals) != 1 {
		t.Fatalf("disposals = %d, want 1", len(l.Disposals))
	}
	disp := l.Disposals[0]
	if got, want := disp.Uncovered, d("5"); !got.Equal(want) {
		t.Errorf("uncovered = %s, want %s", got, want)
	}
	if got, want := disp.CostBasis, d("100"); !got.Equal(want) {
		t.Errorf("cost basis = %s, want %s", got, want)
	}
	if got, want := l.Balance, d("-5"); !got.Equal(want) {
		t.Errorf("balance = %s, want %s", got, want)
	}
}

// TestLedger_NonUnitEntries verifies that tax entries and amount-less
// corrections never move cost basis.
func TestLedger_NonUnitEntries(t *testing.T) {
	t.Run("stt tax entry is not an acquisition", func(t *testing.T) {
		l := NewLedger()
		l.Apply(txn("2024-01-01", model.KindPurchase, "1000", "100", "10"))
		l.Apply(txn("2024-01-02", model.KindSTTTax, "1.55", "0", "0"))

		if got, want := l.Invested, d("1000"); !got.Equal(want) {
			t.Errorf("invested = %s, want %s", got, want)
		}
		if got, want := l.Balance, d("100"); !got.Equal(want) {
			t.Errorf("balance = %s, want %s", got, want)
		}
	})

	t.Run("null amount is a no-op", func(t *testing.T) {
		l := NewLedger()
		l.Apply(txn("2024-01-01", model.KindPurchase, "1000", "100", "10"))
		l.Apply(txn("2024-01-02", model.KindPurchase, "", "5", "10"))

		if got, want := l.Balance, d("100"); !got.Equal(want) {
			t.Errorf("balance = %s, want %s", got, want)
		}
	})
}

// TestLedger_FIFOProperty replays a longer mixed sequence and checks the
// invariants that hold regardless of interleaving: balance equals the exact
// sum of signed quantities, and invested equals acquisitions minus the cost
// of every consumed lot.
func TestLedger_FIFOProperty(t *testing.T) {
	l := NewLedger()
	seq := []model.Transaction{
		txn("2023-01-02", model.KindPurchase, "5000", "250.125", "19.99"),
		txn("2023-02-15", model.KindPurchase, "3000", "142.383", "21.07"),
		txn("2023-03-20", model.KindRedemption, "-2200", "-100.000", "22"),
		txn("2023-05-02", model.KindReinvest, "150.25", "6.871", "21.87"),
		txn("2023-07-11", model.KindRedemption, "-4400", "-200.000", "22"),
		txn("2023-09-01", model.KindPurchase, "1000", "44.683", "22.38"),
	}
	expectedBalance := decimal.Zero
	for _, tx := range seq {
		l.Apply(tx)
		expectedBalance = expectedBalance.Add(tx.Units)
	}

	if !l.Balance.Equal(expectedBalance) {
		t.Errorf("balance = %s, want exact %s", l.Balance, expectedBalance)
	}

	consumedCost := decimal.Zero
	for _, disp := range l.Disposals {
		consumedCost = consumedCost.Add(disp.CostBasis)
	}
	acquired := d("5000").Add(d("3000")).Add(d("150.25")).Add(d("1000"))
	if got, want := l.Invested, acquired.Sub(consumedCost); !got.Equal(want) {
		t.Errorf("invested = %s, want %s", got, want)
	}
}

// TestLedger_ZeroBalanceAverage verifies the average resets to zero when
// the position empties instead of dividing by a near-zero balance.
func TestLedger_ZeroBalanceAverage(t *testing.T) {
	l := NewLedger()
	l.Apply(txn("2024-01-01", model.KindPurchase, "1000", "100", "10"))
	l.Apply(txn("2024-06-01", model.KindRedemption, "-1100", "-100", "11"))

	if !l.Balance.IsZero() {
		t.Errorf("balance = %s, want 0", l.Balance)
	}
	if !l.Average.IsZero() {
		t.Errorf("average = %s, want 0", l.Average)
	}
	if !l.Invested.IsZero() {
		t.Errorf("invested = %s, want 0", l.Invested)
	}
	if got, want := l.PNL, d("100"); !got.Equal(want) {
		t.Errorf("pnl = %s, want %s", got, want)
	}
}
