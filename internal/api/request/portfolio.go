package request

type CreatePortfolioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateFolioRequest struct {
	PortfolioID string `json:"portfolioId"`
	AMC         string `json:"amc"`
	Number      string `json:"number"`
	PAN         string `json:"pan"`
	KYC         bool   `json:"kyc"`
}

type CreateSchemeRequest struct {
	Name     string `json:"name"`
	ISIN     string `json:"isin"`
	AmfiCode string `json:"amfiCode"`
	RTA      string `json:"rta"`
	RTACode  string `json:"rtaCode"`
	Plan     string `json:"plan"`
	Category string `json:"category"`
}

type CreateHoldingRequest struct {
	FolioID  string `json:"folioId"`
	SchemeID string `json:"schemeId"`
}
