package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/api/request"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/service"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/validation"
)

// TransactionHandler handles transaction ingestion HTTP requests.
// Every successful write triggers an incremental recomputation scoped to the
// touched holdings, so derived values never lag the transaction history.
type TransactionHandler struct {
	transactionService *service.TransactionService
	valuationService   *service.ValuationService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(
	transactionService *service.TransactionService,
	valuationService *service.ValuationService,
) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		valuationService:   valuationService,
	}
}

// Create handles POST requests to record a single transaction.
//
// Endpoint: POST /api/transaction
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := validation.ValidateCreateTransaction(req); err != nil {
		respondServiceError(w, err)
		return
	}

	// Fields were validated above; parsing cannot fail here.
	date, _ := time.Parse("2006-01-02", req.Date)
	kind, _ := model.ParseTxnKind(req.Kind)
	units, _ := decimal.NewFromString(req.Units)
	nav, _ := decimal.NewFromString(req.NAV)
	var amount decimal.NullDecimal
	if req.Amount != nil {
		a, _ := decimal.NewFromString(*req.Amount)
		amount = decimal.NullDecimal{Decimal: a, Valid: true}
	}

	txn, err := h.transactionService.CreateTransaction(model.Transaction{
		HoldingID: req.HoldingID,
		Date:      date.UTC(),
		Kind:      kind,
		Amount:    amount,
		Units:     units,
		NAV:       nav,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	report, err := h.valuationService.Recompute(r.Context(), model.RecomputeRequest{
		Auto:          true,
		DirtyHoldings: map[string]time.Time{txn.HoldingID: txn.Date},
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"transaction": txn,
		"recompute":   report,
	})
}

// Import handles POST requests with a CSV body of transactions.
//
// Endpoint: POST /api/transaction/import (Content-Type: text/csv)
func (h *TransactionHandler) Import(w http.ResponseWriter, r *http.Request) {
	result, err := h.transactionService.ImportCSV(r.Body)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	report, err := h.valuationService.Recompute(r.Context(), model.RecomputeRequest{
		Auto:          true,
		DirtyHoldings: result.DirtyHoldings,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"imported":  result.Imported,
		"recompute": report,
	})
}

// ListForHolding handles GET requests for the ordered transaction history of one holding.
//
// Endpoint: GET /api/transaction/holding/{uuid}
func (h *TransactionHandler) ListForHolding(w http.ResponseWriter, r *http.Request) {
	holdingID := chi.URLParam(r, "uuid")

	transactions, err := h.transactionService.GetTransactionsForHolding(holdingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}
