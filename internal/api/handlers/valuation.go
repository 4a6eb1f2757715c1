package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/api/request"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/service"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/validation"
)

// ValuationHandler handles recomputation HTTP requests
type ValuationHandler struct {
	valuationService *service.ValuationService
}

// NewValuationHandler creates a new ValuationHandler
func NewValuationHandler(valuationService *service.ValuationService) *ValuationHandler {
	return &ValuationHandler{
		valuationService: valuationService,
	}
}

// Recompute handles POST requests to run the valuation pipeline.
//
// Endpoint: POST /api/valuation/recompute
// Body: {"startDate": "2024-01-01"} or {"auto": true}, optionally scoped
// with "portfolioId". An empty body recomputes all of history.
func (h *ValuationHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	var req request.RecomputeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
	}

	if req.PortfolioID != "" {
		if err := validation.ValidateUUID(req.PortfolioID); err != nil {
			respondServiceError(w, err)
			return
		}
	}

	svcReq := model.RecomputeRequest{
		Auto:        req.Auto,
		PortfolioID: req.PortfolioID,
	}
	if req.StartDate != nil {
		date, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid startDate"})
			return
		}
		d := date.UTC()
		svcReq.StartDate = &d
	}

	report, err := h.valuationService.Recompute(r.Context(), svcReq)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// RealizedGains handles GET requests for the realized gain records of one holding.
//
// Endpoint: GET /api/valuation/realized-gains/{uuid}
func (h *ValuationHandler) RealizedGains(w http.ResponseWriter, r *http.Request) {
	holdingID := chi.URLParam(r, "uuid")

	gains, err := h.valuationService.GetRealizedGains(holdingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, gains)
}
