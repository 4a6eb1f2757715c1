package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/apperrors"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/validation"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Failed to encode JSON: %v", err)
		}
	}
}

// respondServiceError maps service-layer errors to HTTP status codes.
// Not-found sentinels become 404, input violations 400, the rest 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *validation.Error
	switch {
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrFolioNotFound),
		errors.Is(err, apperrors.ErrSchemeNotFound),
		errors.Is(err, apperrors.ErrHoldingNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
	case errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrInvalidTxnKind),
		errors.Is(err, apperrors.ErrInvalidCSVHeaders),
		errors.Is(err, apperrors.ErrMissingRequiredField),
		errors.Is(err, apperrors.ErrEmptyID),
		errors.Is(err, validation.ErrInvalidUUID),
		errors.Is(err, validation.ErrInvalidDateRange):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
