package validation

import (
	"strings"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/api/request"
)

// ValidateCreatePortfolio validates a portfolio creation request.
func ValidateCreatePortfolio(req request.CreatePortfolioRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateCreateFolio validates a folio creation request.
func ValidateCreateFolio(req request.CreateFolioRequest) error {
	if err := ValidateUUID(req.PortfolioID); err != nil {
		return err
	}

	errors := make(map[string]string)

	if strings.TrimSpace(req.Number) == "" {
		errors["number"] = "number is required"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateCreateHolding validates a holding creation request.
func ValidateCreateHolding(req request.CreateHoldingRequest) error {
	if err := ValidateUUID(req.FolioID); err != nil {
		return err
	}
	return ValidateUUID(req.SchemeID)
}
