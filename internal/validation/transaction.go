package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/api/request"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
)

// ValidateCreateTransaction validates a transaction creation request.
//
// Required fields:
//   - holdingId: Must be a valid UUID
//   - date: Must be in YYYY-MM-DD format
//   - kind: Must be one of the closed transaction kind enumeration
//   - units, nav: Must be valid decimal strings
//
// amount is optional (null means a balance-only entry) but must parse as a
// decimal when present. Returns a validation Error with field-specific
// messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	if err := ValidateUUID(req.HoldingID); err != nil {
		return err
	}

	errors := make(map[string]string)

	if strings.TrimSpace(req.Date) == "" {
		errors["date"] = "date is required"
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		errors["date"] = err.Error()
	}

	if strings.TrimSpace(req.Kind) == "" {
		errors["kind"] = "kind is required"
	} else if _, err := model.ParseTxnKind(req.Kind); err != nil {
		errors["kind"] = fmt.Sprintf("invalid kind: %s", req.Kind)
	}

	if _, err := decimal.NewFromString(req.Units); err != nil {
		errors["units"] = "units must be a decimal number"
	}
	if nav, err := decimal.NewFromString(req.NAV); err != nil {
		errors["nav"] = "nav must be a decimal number"
	} else if nav.IsNegative() {
		errors["nav"] = "nav must not be negative"
	}

	if req.Amount != nil {
		if _, err := decimal.NewFromString(*req.Amount); err != nil {
			errors["amount"] = "amount must be a decimal number"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
