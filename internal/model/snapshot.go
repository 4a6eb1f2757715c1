package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SchemeValue is one persisted daily snapshot of a holding: what was
// invested, what was held and what it was worth on that calendar day.
// Value is always recomputed as Balance x NAV, never stored independently.
type SchemeValue struct {
	ID        string          `json:"id"`
	HoldingID string          `json:"holdingId"`
	Date      time.Time       `json:"date"`
	Invested  decimal.Decimal `json:"invested"`
	AvgNAV    decimal.Decimal `json:"avgNav"`
	Balance   decimal.Decimal `json:"balance"`
	NAV       decimal.Decimal `json:"nav"`
	Value     decimal.Decimal `json:"value"`
}

// FolioValue is the per-date sum of a folio's scheme snapshots.
type FolioValue struct {
	ID       string          `json:"id"`
	FolioID  string          `json:"folioId"`
	Date     time.Time       `json:"date"`
	Invested decimal.Decimal `json:"invested"`
	Value    decimal.Decimal `json:"value"`
}

// PortfolioValue is the per-date sum of a portfolio's folio snapshots.
// XIRR (lifetime) and LiveXIRR (open holdings only) are set on the latest
// row by the recomputation run; nil means "not computable", never zero.
type PortfolioValue struct {
	ID          string          `json:"id"`
	PortfolioID string          `json:"portfolioId"`
	Date        time.Time       `json:"date"`
	Invested    decimal.Decimal `json:"invested"`
	Value       decimal.Decimal `json:"value"`
	XIRR        *float64        `json:"xirr"`
	LiveXIRR    *float64        `json:"liveXirr"`
}

// RealizedGain is one disposal's realized profit or loss, written when the
// ledger consumes lots for a sell.
type RealizedGain struct {
	ID        string          `json:"id"`
	HoldingID string          `json:"holdingId"`
	Date      time.Time       `json:"date"`
	Units     decimal.Decimal `json:"units"`
	CostBasis decimal.Decimal `json:"costBasis"`
	Proceeds  decimal.Decimal `json:"proceeds"`
	Gain      decimal.Decimal `json:"gain"`
}
