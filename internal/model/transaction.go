package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TxnKind is the closed set of transaction kinds established at ingestion
// time. The ledger consumes the kind as a plain variant; free-text statement
// descriptions are classified before they reach this type.
type TxnKind string

const (
	KindPurchase   TxnKind = "purchase"
	KindRedemption TxnKind = "redemption"
	KindSwitchIn   TxnKind = "switch_in"
	KindSwitchOut  TxnKind = "switch_out"
	KindReinvest   TxnKind = "reinvest"
	KindSTTTax     TxnKind = "stt_tax"
)

// ValidTxnKinds contains the allowed transaction kind values.
var ValidTxnKinds = map[TxnKind]bool{
	KindPurchase:   true,
	KindRedemption: true,
	KindSwitchIn:   true,
	KindSwitchOut:  true,
	KindReinvest:   true,
	KindSTTTax:     true,
}

// ParseTxnKind validates a raw kind string.
func ParseTxnKind(s string) (TxnKind, error) {
	kind := TxnKind(s)
	if !ValidTxnKinds[kind] {
		return "", fmt.Errorf("unknown transaction kind: %q", s)
	}
	return kind, nil
}

// Transaction is one immutable ledger entry for a holding. Amount carries two
// decimal places, Units three and NAV four. A null Amount marks a
// balance-only informational correction that never moves cost basis.
//
// For a given holding, transactions are totally ordered by date with
// insertion order breaking ties; repositories return them in that order.
type Transaction struct {
	ID        string              `json:"id"`
	HoldingID string              `json:"holdingId"`
	Date      time.Time           `json:"date"`
	Kind      TxnKind             `json:"kind"`
	Amount    decimal.NullDecimal `json:"amount"`
	Units     decimal.Decimal     `json:"units"`
	NAV       decimal.Decimal     `json:"nav"`
	CreatedAt time.Time           `json:"createdAt,omitempty"`
}
