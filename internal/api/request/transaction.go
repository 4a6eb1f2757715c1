package request

// CreateTransactionRequest carries one transaction to ingest. Monetary fields
// are decimal strings so amounts round-trip exactly; Amount may be null for
// balance-only entries.
type CreateTransactionRequest struct {
	HoldingID string  `json:"holdingId"`
	Date      string  `json:"date"` // YYYY-MM-DD
	Kind      string  `json:"kind"`
	Amount    *string `json:"amount"`
	Units     string  `json:"units"`
	NAV       string  `json:"nav"`
}
