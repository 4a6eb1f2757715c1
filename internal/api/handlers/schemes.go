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

// SchemeHandler handles fund scheme and holding HTTP requests
type SchemeHandler struct {
	portfolioService *service.PortfolioService
	navService       *service.NAVService
}

// NewSchemeHandler creates a new SchemeHandler
func NewSchemeHandler(portfolioService *service.PortfolioService, navService *service.NAVService) *SchemeHandler {
	return &SchemeHandler{
		portfolioService: portfolioService,
		navService:       navService,
	}
}

// Create handles POST requests to register a fund scheme.
//
// Endpoint: POST /api/scheme
func (h *SchemeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSchemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	scheme, err := h.portfolioService.CreateScheme(model.FundScheme{
		Name:     req.Name,
		ISIN:     req.ISIN,
		AmfiCode: req.AmfiCode,
		RTA:      req.RTA,
		RTACode:  req.RTACode,
		Plan:     req.Plan,
		Category: req.Category,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, scheme)
}

// CreateHolding handles POST requests to open a holding (folio + scheme pair).
// Returns the existing holding when the pair is already held.
//
// Endpoint: POST /api/holding
func (h *SchemeHandler) CreateHolding(w http.ResponseWriter, r *http.Request) {
	var req request.CreateHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := validation.ValidateCreateHolding(req); err != nil {
		respondServiceError(w, err)
		return
	}

	holding, err := h.portfolioService.GetOrCreateHolding(req.FolioID, req.SchemeID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, holding)
}

// NAVHistory handles GET requests for stored NAV observations of one scheme.
//
// Endpoint: GET /api/scheme/{uuid}/nav?startDate=2024-01-01&endDate=2024-12-31
func (h *SchemeHandler) NAVHistory(w http.ResponseWriter, r *http.Request) {
	schemeID := chi.URLParam(r, "uuid")

	start, end, err := validation.ParseDateRange(
		r.URL.Query().Get("startDate"),
		r.URL.Query().Get("endDate"),
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Now().UTC(),
	)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	records, err := h.navService.GetNAVHistory(schemeID, start, end)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// RefreshNAVs handles POST requests to refresh NAV history from the public feed.
//
// Endpoint: POST /api/nav/refresh
func (h *SchemeHandler) RefreshNAVs(w http.ResponseWriter, r *http.Request) {
	inserted, err := h.navService.RefreshAll(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"inserted": inserted})
}
