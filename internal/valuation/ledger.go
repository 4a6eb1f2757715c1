// Package valuation implements the cost-basis and valuation engine: a FIFO
// lot ledger, a daily grid builder, date-grouped aggregation, and an XIRR
// solver. The package is pure in-memory; persistence and orchestration live
// in the service layer.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
)

// NegligibleUnits is the unit-balance threshold below which a holding is
// treated as fully exited.
var NegligibleUnits = decimal.RequireFromString("0.001")

// lot is one unconsumed acquisition in the FIFO queue.
type lot struct {
	Units decimal.Decimal
	NAV   decimal.Decimal
}

// Disposal describes the cost recovered by a single sell transaction.
// Uncovered holds any sold units that could not be matched against lots
// (oversell); such units carry no cost and are surfaced as a data-quality
// condition, not an error.
type Disposal struct {
	Units     decimal.Decimal
	CostBasis decimal.Decimal
	Proceeds  decimal.Decimal
	Gain      decimal.Decimal
	Uncovered decimal.Decimal
}

// Ledger replays one holding's transactions in date order and maintains the
// running outstanding balance, invested amount (cost basis), average
// acquisition NAV and cumulative realized P&L.
//
// Monetary values are rounded to 2 decimal places after every transaction,
// the average NAV to 4; unit quantities are carried exactly.
type Ledger struct {
	lots []lot
	head int

	Balance  decimal.Decimal
	Invested decimal.Decimal
	Average  decimal.Decimal
	PNL      decimal.Decimal

	// Disposals collects per-sell realized gain details in replay order.
	Disposals []Disposal
}

// NewLedger creates a zero-initialized ledger.
func NewLedger() *Ledger {
	return &Ledger{
		Balance:  decimal.Zero,
		Invested: decimal.Zero,
		Average:  decimal.Zero,
		PNL:      decimal.Zero,
	}
}

// Apply processes a single transaction. Transactions must be fed in date
// order with stable insertion order within a date; the caller owns that
// ordering.
//
// A transaction with no amount is a no-op for cost basis (balance-only
// informational corrections). Positive amounts acquire units unless the
// transaction is a tax entry; negative amounts dispose of units FIFO.
func (l *Ledger) Apply(txn model.Transaction) {
	if !txn.Amount.Valid {
		return
	}
	amount := txn.Amount.Decimal
	switch {
	case amount.IsPositive() && txn.Kind != model.KindSTTTax:
		l.buy(txn.Units, txn.NAV, amount)
	case amount.IsNegative():
		l.sell(txn.Units, txn.NAV)
	}
}

// buy appends a lot and grows the cost basis.
func (l *Ledger) buy(units, nav, amount decimal.Decimal) {
	l.Balance = l.Balance.Add(units)
	l.Invested = l.Invested.Add(amount).Round(2)
	l.lots = append(l.lots, lot{Units: units, NAV: nav})
	l.recomputeAverage()
}

// sell consumes lots oldest-first until the sold quantity is covered.
// A partially consumed lot keeps its remainder at the queue head. If the
// queue runs dry the uncovered remainder is dropped from cost and recorded
// on the resulting Disposal.
func (l *Ledger) sell(units, nav decimal.Decimal) {
	qty := units.Abs()
	pending := qty
	cost := decimal.Zero

	var lastNAV decimal.Decimal
	consumed := false

	for pending.IsPositive() && l.head < len(l.lots) {
		current := l.lots[l.head]
		l.head++
		consumed = true
		lastNAV = current.NAV

		if current.Units.LessThanOrEqual(pending) {
			cost = cost.Add(current.Units.Mul(current.NAV))
		} else {
			cost = cost.Add(pending.Mul(current.NAV))
		}
		pending = pending.Sub(current.Units)
	}

	if pending.IsNegative() && consumed {
		// Last lot was only partially consumed; its remainder stays at the head.
		l.head--
		l.lots[l.head] = lot{Units: pending.Neg(), NAV: lastNAV}
	}

	uncovered := decimal.Zero
	if pending.IsPositive() {
		uncovered = pending
	}

	proceeds := qty.Mul(nav).Round(2)
	gain := qty.Mul(nav).Sub(cost).Round(2)

	l.Invested = l.Invested.Sub(cost.Round(2))
	l.Balance = l.Balance.Sub(qty)
	l.PNL = l.PNL.Add(gain)
	l.recomputeAverage()

	l.Disposals = append(l.Disposals, Disposal{
		Units:     qty,
		CostBasis: cost.Round(2),
		Proceeds:  proceeds,
		Gain:      gain,
		Uncovered: uncovered,
	})
}

// recomputeAverage derives the running average acquisition NAV. A balance at
// or below the negligible threshold yields a zero average, never a division
// by a near-zero quantity.
func (l *Ledger) recomputeAverage() {
	if l.Balance.Abs().GreaterThan(NegligibleUnits) {
		l.Average = l.Invested.Div(l.Balance).Round(4)
	} else {
		l.Average = decimal.Zero
	}
}

// OpenLots returns the number of unconsumed lots. Used by tests and
// diagnostics only.
func (l *Ledger) OpenLots() int {
	return len(l.lots) - l.head
}
