package model

import "time"

// RecomputeRequest scopes a recomputation run.
//
// StartDate semantics mirror the operational contract: nil means "from the
// beginning of history", Auto means "one day past the most recent persisted
// scheme snapshot", an explicit date forces that start. DirtyHoldings
// localizes recomputation after an import: holding id -> earliest date whose
// transactions changed.
type RecomputeRequest struct {
	StartDate     *time.Time
	Auto          bool
	PortfolioID   string
	DirtyHoldings map[string]time.Time
}

// DataQualityFlag records a non-fatal condition hit while processing one
// holding (oversell beyond available lots, missing price before the first
// observation, ...). The run continues with the best available fallback.
type DataQualityFlag struct {
	HoldingID string `json:"holdingId"`
	Date      string `json:"date"`
	Condition string `json:"condition"`
}

// RecomputeReport is the caller-visible outcome of one recomputation run.
// Failed holdings are isolated: one malformed holding never aborts the rest
// of its portfolio.
type RecomputeReport struct {
	RowsWritten     map[string]int    `json:"rowsWritten"` // holding id -> scheme rows written
	HoldingsSkipped []string          `json:"holdingsSkipped"`
	FailedHoldings  map[string]string `json:"failedHoldings"` // holding id -> reason
	DataQuality     []DataQualityFlag `json:"dataQuality"`
	Portfolios      []ReturnSummary   `json:"portfolios"`
}
