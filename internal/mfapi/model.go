package mfapi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Response represents the raw JSON response structure from the mfapi.in NAV feed.
// This type maps directly to the /mf/{scheme_code} endpoint response format.
//
// The structure includes:
//   - Meta: Scheme metadata (fund house, scheme name, AMFI scheme code)
//   - Data: NAV observations as strings, newest first
//   - Status: "SUCCESS" or an error indicator
type Response struct {
	Meta   Meta    `json:"meta"`
	Data   []Entry `json:"data"`
	Status string  `json:"status"`
}

// Meta is the scheme metadata block of a feed response.
type Meta struct {
	FundHouse      string `json:"fund_house"`
	SchemeType     string `json:"scheme_type"`
	SchemeCategory string `json:"scheme_category"`
	SchemeCode     int64  `json:"scheme_code"`
	SchemeName     string `json:"scheme_name"`
}

// Entry is one raw NAV observation as published by the feed.
type Entry struct {
	Date string `json:"date"` // dd-mm-yyyy
	NAV  string `json:"nav"`
}

// NAVSeries represents a parsed and structured NAV history for one scheme.
// This is the application's internal representation after parsing the raw
// Response: dates become time.Time and NAVs become exact decimals, ordered
// oldest first so callers can append to stored history directly.
type NAVSeries struct {
	SchemeCode string     `json:"schemeCode"`
	SchemeName string     `json:"schemeName"`
	FundHouse  string     `json:"fundHouse"`
	Quotes     []NAVQuote `json:"quotes"`
}

// NAVQuote is a single day's published NAV.
type NAVQuote struct {
	Date time.Time
	NAV  decimal.Decimal
}
