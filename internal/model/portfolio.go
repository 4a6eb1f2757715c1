package model

import "time"

// Portfolio represents an investor portfolio from the database.
type Portfolio struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsArchived  bool   `json:"isArchived"`
}

// PortfolioFilter for querying portfolios.
type PortfolioFilter struct {
	IncludeArchived bool
}

// Folio is an account with a fund house, containing one or more holdings.
// PAN is the investor tax id; it is encrypted at rest and only ever appears
// in clear inside the process.
type Folio struct {
	ID          string `json:"id"`
	PortfolioID string `json:"portfolioId"`
	AMC         string `json:"amc"`
	Number      string `json:"number"`
	PAN         string `json:"pan,omitempty"`
	KYC         bool   `json:"kyc"`
}

// PortfolioSummary is the current state of one portfolio: totals from the
// latest portfolio value row plus the per-scheme breakdown.
// XIRRFull covers every transaction ever recorded; XIRRLive is restricted to
// holdings with a positive current market value. Either may be nil when the
// rate is not computable; nil is materially different from zero.
type PortfolioSummary struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Date     string          `json:"date"` // YYYY-MM-DD
	Invested string          `json:"invested"`
	Value    string          `json:"value"`
	XIRRFull *float64        `json:"xirrFull"`
	XIRRLive *float64        `json:"xirrLive"`
	Schemes  []SchemeSummary `json:"schemes"`
}

// SchemeSummary is one holding's slice of a portfolio summary.
type SchemeSummary struct {
	HoldingID     string   `json:"holdingId"`
	SchemeName    string   `json:"schemeName"`
	FolioNumber   string   `json:"folioNumber"`
	Invested      string   `json:"invested"`
	Units         string   `json:"units"`
	AvgNAV        string   `json:"avgNav"`
	Value         string   `json:"value"`
	XIRRLive      *float64 `json:"xirrLive"`
	ValuationDate *string  `json:"valuationDate"`
}

// PortfolioHistoryPoint is one date of the portfolio value time series.
type PortfolioHistoryPoint struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Invested string `json:"invested"`
	Value    string `json:"value"`
}

// ReturnSummary is the per-portfolio result of a recomputation run's XIRR
// pass, as written back to the latest portfolio value row.
type ReturnSummary struct {
	PortfolioID string    `json:"portfolioId"`
	Invested    string    `json:"invested"`
	Value       string    `json:"value"`
	XIRRFull    *float64  `json:"xirrFull"`
	XIRRLive    *float64  `json:"xirrLive"`
	AsOfDate    time.Time `json:"asOfDate"`
}
