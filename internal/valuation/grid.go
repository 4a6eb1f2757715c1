package valuation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
)

// ReplayPoint is the ledger state captured immediately after applying one
// transaction, pinned to that transaction's date. When several transactions
// share a date the last point for the date wins.
type ReplayPoint struct {
	Date     time.Time
	Invested decimal.Decimal
	Average  decimal.Decimal
	Balance  decimal.Decimal
}

// GridInput bundles everything needed to expand one holding's sparse events
// into a dense daily series.
type GridInput struct {
	HoldingID string

	// Seed is the latest persisted snapshot at or immediately before From,
	// used to pre-fill the first row. Nil for a holding with no prior history.
	Seed *model.SchemeValue

	// Points are the replay overlays for the recompute window, in date order.
	Points []ReplayPoint

	// FinalBalance is the ledger balance after the full replay; it decides
	// whether the series extends to Today or stops at the exit date.
	FinalBalance decimal.Decimal

	// Prices are NAV observations covering [From, Today], sorted by date.
	Prices []model.NAVRecord

	From  time.Time
	Today time.Time
}

// GridResult is the dense daily series plus consistency metadata.
type GridResult struct {
	Rows []model.SchemeValue

	// To is the last date of the series. When the holding exited before
	// Today, rows persisted beyond To by a prior run are stale and must be
	// truncated (Truncated = true).
	To        time.Time
	Truncated bool

	Warnings []model.DataQualityFlag
}

// Day truncates a timestamp to a UTC calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BuildDailySeries produces one row per calendar day in [From, To] by
// overlaying transaction-date ledger states and NAV observations on a dense
// calendar index and forward-filling every column across gaps. There is no
// look-ahead: a day only ever sees values known on or before it.
//
// To is Today while the final balance is above the negligible threshold;
// otherwise the series stops at the transaction that emptied the position,
// because extending it further would fabricate a phantom position.
//
// Days before the first NAV observation carry price zero and therefore value
// zero; the condition is reported as a data-quality warning, not an error.
func BuildDailySeries(in GridInput) (GridResult, error) {
	from := Day(in.From)
	today := Day(in.Today)

	var to time.Time
	switch {
	case in.FinalBalance.GreaterThan(NegligibleUnits):
		to = today
	case len(in.Points) > 0:
		to = Day(in.Points[len(in.Points)-1].Date)
	default:
		return GridResult{}, fmt.Errorf("holding %s: no transactions and no open balance", in.HoldingID)
	}
	if to.Before(from) {
		return GridResult{}, fmt.Errorf("holding %s: series end %s precedes start %s",
			in.HoldingID, to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	invested := decimal.Zero
	average := decimal.Zero
	balance := decimal.Zero
	nav := decimal.Zero
	if in.Seed != nil {
		invested = in.Seed.Invested
		average = in.Seed.AvgNAV
		balance = in.Seed.Balance
		nav = in.Seed.NAV
	}

	result := GridResult{To: to, Truncated: !to.Equal(today)}

	pointIdx := 0
	priceIdx := 0
	missingPriceDays := 0
	var firstMissing time.Time

	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		for pointIdx < len(in.Points) && !Day(in.Points[pointIdx].Date).After(date) {
			p := in.Points[pointIdx]
			invested = p.Invested
			average = p.Average
			balance = p.Balance
			pointIdx++
		}
		for priceIdx < len(in.Prices) && !Day(in.Prices[priceIdx].Date).After(date) {
			nav = in.Prices[priceIdx].NAV
			priceIdx++
		}

		if nav.IsZero() && balance.GreaterThan(NegligibleUnits) {
			if missingPriceDays == 0 {
				firstMissing = date
			}
			missingPriceDays++
		}

		result.Rows = append(result.Rows, model.SchemeValue{
			HoldingID: in.HoldingID,
			Date:      date,
			Invested:  invested,
			AvgNAV:    average,
			Balance:   balance,
			NAV:       nav,
			Value:     balance.Mul(nav).Round(2),
		})
	}

	if missingPriceDays > 0 {
		result.Warnings = append(result.Warnings, model.DataQualityFlag{
			HoldingID: in.HoldingID,
			Date:      firstMissing.Format("2006-01-02"),
			Condition: fmt.Sprintf("no NAV on or before %d day(s) with an open balance; market value recorded as 0", missingPriceDays),
		})
	}

	return result, nil
}
