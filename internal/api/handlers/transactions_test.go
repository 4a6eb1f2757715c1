package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/api/handlers"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/testutil"
)

func TestTransactionHandler_Create(t *testing.T) {
	setup := func(t *testing.T) (*handlers.TransactionHandler, model.Holding) {
		t.Helper()
		db := testutil.SetupTestDB(t)

		portfolio := testutil.NewPortfolio().Build(t, db)
		folio := testutil.NewFolio(portfolio.ID).Build(t, db)
		scheme := testutil.NewScheme().Build(t, db)
		holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)
		testutil.AddNAV(t, db, scheme.ID, "2024-01-01", "10")

		vs := testutil.NewTestValuationService(t, db)
		vs.SetClock(func() time.Time {
			d, _ := time.Parse("2006-01-02", "2024-01-05")
			return d.UTC()
		})
		return handlers.NewTransactionHandler(testutil.NewTestTransactionService(t, db), vs), holding
	}

	t.Run("records a transaction and recomputes", func(t *testing.T) {
		handler, holding := setup(t)

		body := `{
			"holdingId": "` + holding.ID + `",
			"date": "2024-01-01",
			"kind": "purchase",
			"amount": "1000",
			"units": "100",
			"nav": "10"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/transaction", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.Create(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}

		var response struct {
			Transaction model.Transaction     `json:"transaction"`
			Recompute   model.RecomputeReport `json:"recompute"`
		}
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Transaction.ID == "" {
			t.Error("Expected generated transaction id")
		}
		// Jan 1 through the fixed "today" of Jan 5.
		if got := response.Recompute.RowsWritten[holding.ID]; got != 5 {
			t.Errorf("Expected 5 snapshot rows, got %d", got)
		}
	})

	t.Run("rejects an invalid kind with 400", func(t *testing.T) {
		handler, holding := setup(t)

		body := `{
			"holdingId": "` + holding.ID + `",
			"date": "2024-01-01",
			"kind": "transfer",
			"units": "100",
			"nav": "10"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/transaction", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.Create(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}

		var response struct {
			Fields map[string]string `json:"fields"`
		}
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Fields["kind"] == "" {
			t.Errorf("Expected a kind field error, got %v", response.Fields)
		}
	})

	t.Run("rejects a non-uuid holding with 400", func(t *testing.T) {
		handler, _ := setup(t)

		body := `{"holdingId": "abc", "date": "2024-01-01", "kind": "purchase", "units": "1", "nav": "1"}`
		req := httptest.NewRequest(http.MethodPost, "/api/transaction", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.Create(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestTransactionHandler_Import(t *testing.T) {
	db := testutil.SetupTestDB(t)

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)
	testutil.AddNAV(t, db, scheme.ID, "2024-01-01", "10")

	vs := testutil.NewTestValuationService(t, db)
	vs.SetClock(func() time.Time {
		d, _ := time.Parse("2006-01-02", "2024-01-03")
		return d.UTC()
	})
	handler := handlers.NewTransactionHandler(testutil.NewTestTransactionService(t, db), vs)

	t.Run("imports a CSV and recomputes", func(t *testing.T) {
		csv := "holding_id,date,kind,amount,units,nav\n" +
			holding.ID + ",2024-01-01,purchase,1000,100,10\n" +
			holding.ID + ",2024-01-02,purchase,500,50,10\n"

		req := httptest.NewRequest(http.MethodPost, "/api/transaction/import", strings.NewReader(csv))
		w := httptest.NewRecorder()

		handler.Import(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response struct {
			Imported  int                   `json:"imported"`
			Recompute model.RecomputeReport `json:"recompute"`
		}
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Imported != 2 {
			t.Errorf("Expected 2 imported, got %d", response.Imported)
		}
		if got := response.Recompute.RowsWritten[holding.ID]; got != 3 {
			t.Errorf("Expected 3 snapshot rows, got %d", got)
		}
	})

	t.Run("rejects bad headers with 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/transaction/import",
			strings.NewReader("a,b,c,d,e,f\n"))
		w := httptest.NewRecorder()

		handler.Import(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestTransactionHandler_ListForHolding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewTransactionHandler(
		testutil.NewTestTransactionService(t, db),
		testutil.NewTestValuationService(t, db),
	)

	portfolio := testutil.NewPortfolio().Build(t, db)
	folio := testutil.NewFolio(portfolio.ID).Build(t, db)
	scheme := testutil.NewScheme().Build(t, db)
	holding := testutil.NewHolding(t, db, folio.ID, scheme.ID)

	testutil.NewTransaction(holding.ID).On("2024-01-02").Purchase("500", "50", "10").Build(t, db)
	testutil.NewTransaction(holding.ID).On("2024-01-01").Purchase("1000", "100", "10").Build(t, db)

	t.Run("returns the ordered history", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/transaction/holding", nil)
		req = withURLParam(req, "uuid", holding.ID)
		w := httptest.NewRecorder()

		handler.ListForHolding(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response []model.Transaction
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(response) != 2 {
			t.Fatalf("Expected 2 transactions, got %d", len(response))
		}
		if got := response[0].Date.Format("2006-01-02"); got != "2024-01-01" {
			t.Errorf("Expected earliest first, got %s", got)
		}
	})

	t.Run("unknown holding returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/transaction/holding", nil)
		req = withURLParam(req, "uuid", testutil.MakeID())
		w := httptest.NewRecorder()

		handler.ListForHolding(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})
}
