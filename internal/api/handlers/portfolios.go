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

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// Portfolios handles GET requests to list portfolios.
//
// Endpoint: GET /api/portfolio?includeArchived=true
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	filter := model.PortfolioFilter{
		IncludeArchived: r.URL.Query().Get("includeArchived") == "true",
	}

	portfolios, err := h.portfolioService.GetPortfolios(filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, portfolios)
}

// Create handles POST requests to create a portfolio.
//
// Endpoint: POST /api/portfolio
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := validation.ValidateCreatePortfolio(req); err != nil {
		respondServiceError(w, err)
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(req.Name, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, portfolio)
}

// CreateFolio handles POST requests to create a folio under a portfolio.
//
// Endpoint: POST /api/portfolio/folio
func (h *PortfolioHandler) CreateFolio(w http.ResponseWriter, r *http.Request) {
	var req request.CreateFolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := validation.ValidateCreateFolio(req); err != nil {
		respondServiceError(w, err)
		return
	}

	folio, err := h.portfolioService.CreateFolio(model.Folio{
		PortfolioID: req.PortfolioID,
		AMC:         req.AMC,
		Number:      req.Number,
		PAN:         req.PAN,
		KYC:         req.KYC,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, folio)
}

// Summary handles GET requests for the current-state view of one portfolio.
//
// Endpoint: GET /api/portfolio/{uuid}/summary
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

	summary, err := h.portfolioService.GetSummary(portfolioID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// History handles GET requests for the portfolio value time series.
//
// Endpoint: GET /api/portfolio/{uuid}/history?startDate=2024-01-01&endDate=2024-12-31
func (h *PortfolioHandler) History(w http.ResponseWriter, r *http.Request) {
	portfolioID := chi.URLParam(r, "uuid")

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

	points, err := h.portfolioService.GetHistory(portfolioID, start, end)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, points)
}
