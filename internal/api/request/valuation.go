package request

// RecomputeRequest scopes a recomputation run. StartDate and Auto are
// mutually exclusive; with neither set the run covers all of history.
type RecomputeRequest struct {
	StartDate   *string `json:"startDate"` // YYYY-MM-DD
	Auto        bool    `json:"auto"`
	PortfolioID string  `json:"portfolioId"`
}
