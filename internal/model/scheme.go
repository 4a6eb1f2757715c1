package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundScheme is one tradeable mutual fund scheme (the instrument catalog
// entry). Multiple holdings across folios may reference the same scheme and
// share its NAV history.
type FundScheme struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ISIN     string `json:"isin"`
	AmfiCode string `json:"amfiCode"`
	RTA      string `json:"rta"`
	RTACode  string `json:"rtaCode"`
	Plan     string `json:"plan"`
	Category string `json:"category"`
}

// Holding is a scheme position inside a folio. Valuation, XIRRLive and
// ValuationDate are refreshed by the recomputation run's XIRR pass and are
// nil until the first run completes (or when the rate is not computable).
type Holding struct {
	ID            string           `json:"id"`
	FolioID       string           `json:"folioId"`
	SchemeID      string           `json:"schemeId"`
	Valuation     *decimal.Decimal `json:"valuation"`
	XIRRLive      *float64         `json:"xirrLive"`
	ValuationDate *time.Time       `json:"valuationDate"`
}

// HoldingRef carries the ancestry of a holding, used by the orchestrator to
// group work per portfolio and by the aggregator to resolve parents.
type HoldingRef struct {
	HoldingID   string
	SchemeID    string
	FolioID     string
	PortfolioID string
}

// NAVRecord is one observed price for a scheme on a trading day. The series
// is sparse; gaps are forward-filled by the grid builder.
type NAVRecord struct {
	ID       string          `json:"id"`
	SchemeID string          `json:"schemeId"`
	Date     time.Time       `json:"date"`
	NAV      decimal.Decimal `json:"nav"`
}
