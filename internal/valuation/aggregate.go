package valuation

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ChildValue is one materialized (parent, date, invested, value) tuple fed
// into aggregation. The same shape serves both passes: scheme rows keyed by
// folio id, then folio rows keyed by portfolio id.
type ChildValue struct {
	ParentID string
	Date     time.Time
	Invested decimal.Decimal
	Value    decimal.Decimal
}

// Aggregate groups child tuples by (parent, date) and sums the invested and
// value columns, emitting one row per group. A parent missing children on a
// date simply has no row for that date; absence is zero contribution, not an
// error. Output is ordered by parent id then date for deterministic writes.
func Aggregate(children []ChildValue) []ChildValue {
	type key struct {
		parent string
		date   string
	}

	sums := make(map[key]*ChildValue)
	for _, c := range children {
		k := key{parent: c.ParentID, date: Day(c.Date).Format("2006-01-02")}
		row, ok := sums[k]
		if !ok {
			row = &ChildValue{ParentID: c.ParentID, Date: Day(c.Date)}
			sums[k] = row
		}
		row.Invested = row.Invested.Add(c.Invested)
		row.Value = row.Value.Add(c.Value)
	}

	out := make([]ChildValue, 0, len(sums))
	for _, row := range sums {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ParentID != out[j].ParentID {
			return out[i].ParentID < out[j].ParentID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
