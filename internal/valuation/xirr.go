package valuation

import (
	"math"
	"sort"
	"time"
)

// CashFlow is a single dated cash flow for XIRR calculation.
// Negative amounts are money invested, positive amounts money received;
// the terminal present value is appended by the caller as a positive flow
// at the as-of date.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

// XIRR solves for the annualized rate r such that
//
//	sum(amount_i / (1+r)^(days_i/365)) = 0
//
// over the given flows. Flows sharing a date are summed before solving.
// The second return value is false when the rate is not computable: fewer
// than two flows, all flows of one sign, or solver non-convergence. Callers
// must treat a missing rate as "unavailable", never as zero.
//
// Newton-Raphson with a deterministic initial guess is tried first, with
// bisection as fallback, so identical inputs always produce identical output.
func XIRR(flows []CashFlow) (float64, bool) {
	merged := mergeByDate(flows)
	if len(merged) < 2 {
		return 0, false
	}

	hasNeg, hasPos := false, false
	for _, f := range merged {
		if f.Amount < 0 {
			hasNeg = true
		}
		if f.Amount > 0 {
			hasPos = true
		}
	}
	if !hasNeg || !hasPos {
		return 0, false
	}

	base := merged[0].Date
	years := make([]float64, len(merged))
	for i, f := range merged {
		years[i] = f.Date.Sub(base).Hours() / 24 / 365
	}

	rate, ok := solveNewton(merged, years)
	if !ok {
		rate, ok = solveBisection(merged, years)
	}
	if !ok || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, false
	}
	return rate, true
}

// mergeByDate sums flows sharing a calendar day and returns them date-sorted.
func mergeByDate(flows []CashFlow) []CashFlow {
	byDay := make(map[time.Time]float64)
	for _, f := range flows {
		byDay[Day(f.Date)] += f.Amount
	}
	merged := make([]CashFlow, 0, len(byDay))
	for d, amt := range byDay {
		merged = append(merged, CashFlow{Date: d, Amount: amt})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}

func npvAt(flows []CashFlow, years []float64, rate float64) float64 {
	sum := 0.0
	for i, f := range flows {
		base := 1 + rate
		if base <= 0 {
			return math.NaN()
		}
		sum += f.Amount / math.Pow(base, years[i])
	}
	return sum
}

// solveNewton runs Newton-Raphson with clamping to keep the iterate inside
// a sane rate range. The initial guess is derived from the simple return so
// the whole procedure is deterministic.
func solveNewton(flows []CashFlow, years []float64) (float64, bool) {
	const (
		maxIter = 100
		tol     = 1e-7
		minRate = -0.999
		maxRate = 100.0
	)

	totalInvested := 0.0
	totalReceived := 0.0
	for _, f := range flows {
		if f.Amount < 0 {
			totalInvested -= f.Amount
		} else {
			totalReceived += f.Amount
		}
	}
	guess := 0.1
	if totalInvested > 0 {
		simpleReturn := totalReceived/totalInvested - 1
		if simpleReturn > -0.9 && simpleReturn < 10 {
			guess = simpleReturn
		}
	}

	rate := guess
	for iter := 0; iter < maxIter; iter++ {
		npv := 0.0
		dnpv := 0.0
		for i, f := range flows {
			y := years[i]
			base := 1 + rate
			if base <= 0 {
				rate = minRate
				base = 1 + rate
			}
			discount := math.Pow(base, y)
			if discount == 0 {
				continue
			}
			npv += f.Amount / discount
			if y != 0 {
				dnpv -= y * f.Amount / (discount * base)
			}
		}

		if math.Abs(npv) < tol {
			return rate, true
		}
		if dnpv == 0 {
			return 0, false
		}

		next := rate - npv/dnpv
		if next < minRate {
			next = minRate
		}
		if next > maxRate {
			next = maxRate
		}
		rate = next
	}

	return 0, false
}

// solveBisection brackets the root in [-0.99, 10] and halves until the NPV
// is within tolerance. Returns false when no sign change exists in the
// bracket.
func solveBisection(flows []CashFlow, years []float64) (float64, bool) {
	const (
		maxIter = 200
		tol     = 1e-6
	)

	lo, hi := -0.99, 10.0
	npvLo := npvAt(flows, years, lo)
	npvHi := npvAt(flows, years, hi)
	if math.IsNaN(npvLo) || math.IsNaN(npvHi) || npvLo*npvHi > 0 {
		return 0, false
	}

	for iter := 0; iter < maxIter; iter++ {
		mid := (lo + hi) / 2
		npvMid := npvAt(flows, years, mid)
		if math.IsNaN(npvMid) {
			return 0, false
		}
		if math.Abs(npvMid) < tol {
			return mid, true
		}
		if npvMid*npvLo < 0 {
			hi = mid
		} else {
			lo = mid
			npvLo = npvMid
		}
	}

	return (lo + hi) / 2, true
}
