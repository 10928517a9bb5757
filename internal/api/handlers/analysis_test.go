package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/handlers"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/testutil"
)

// newSyncedAnalysisHandler syncs the mock portfolio once so the handler has a
// snapshot to read from.
func newSyncedAnalysisHandler(t *testing.T) *handlers.AnalysisHandler {
	t.Helper()
	db := testutil.SetupTestDB(t)

	if _, err := testutil.NewTestSyncService(t, db, testutil.NewMockKinvoClient(), nil).
		SyncPortfolio(context.Background(), testutil.MockPortfolioID); err != nil {
		t.Fatalf("SyncPortfolio() returned unexpected error: %v", err)
	}

	return handlers.NewAnalysisHandler(testutil.NewTestAnalysisService(t, db))
}

func analysisRequest(endpoint string, query url.Values) *http.Request {
	return testutil.NewPortfolioRequest(http.MethodGet, testutil.MockPortfolioID, endpoint, query)
}

// TestAnalysisHandler_Summary tests the GET /api/portfolio/{portfolioId}/summary endpoint.
//
// WHY: The summary is the main table of the dashboard. Bad query parameters
// must be rejected before any work is done, and a portfolio without data must
// be distinguishable from a server failure.
func TestAnalysisHandler_Summary(t *testing.T) {
	t.Run("returns monthly rows and the total", func(t *testing.T) {
		// Setup
		handler := newSyncedAnalysisHandler(t)
		w := httptest.NewRecorder()

		// Execute
		handler.Summary(w, analysisRequest("summary", nil))

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var summary service.Summary
		if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(summary.Rows) != 3 {
			t.Fatalf("Expected 3 rows, got %d", len(summary.Rows))
		}
		if summary.Total == nil {
			t.Fatal("Expected a total row")
		}
		if summary.Total.FinalEquity != 3045 {
			t.Errorf("Expected total final equity 3045, got %f", summary.Total.FinalEquity)
		}
	})

	t.Run("returns 400 for an unknown interval", func(t *testing.T) {
		handler := newSyncedAnalysisHandler(t)
		w := httptest.NewRecorder()

		handler.Summary(w, analysisRequest("summary", url.Values{"interval": {"5m"}}))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("returns 400 for an inverted custom range", func(t *testing.T) {
		handler := newSyncedAnalysisHandler(t)
		w := httptest.NewRecorder()

		handler.Summary(w, analysisRequest("summary", url.Values{
			"from": {"2024-03-01"},
			"to":   {"2024-01-01"},
		}))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("returns 404 for a portfolio that was never synced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewPortfolio().WithID(1001).Build(t, db)
		handler := handlers.NewAnalysisHandler(testutil.NewTestAnalysisService(t, db))
		w := httptest.NewRecorder()

		handler.Summary(w, analysisRequest("summary", nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

func TestAnalysisHandler_Charts(t *testing.T) {
	handler := newSyncedAnalysisHandler(t)

	t.Run("profitability by year", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Profitability(w, analysisRequest("profitability", url.Values{"granularity": {"year"}}))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		var result service.Profitability
		if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(result.Rows) != 1 {
			t.Errorf("Expected 1 yearly row, got %d", len(result.Rows))
		}
	})

	t.Run("daily net worth", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.NetWorth(w, analysisRequest("net-worth", url.Values{"granularity": {"day"}}))

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("allocation by institution", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Allocation(w, analysisRequest("allocation", url.Values{"groupBy": {"institution"}}))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		var result service.Allocation
		if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(result.Slices) != 2 || result.Slices[0].Label != "Xp Investimentos" {
			t.Errorf("Unexpected slices: %+v", result.Slices)
		}
	})

	t.Run("allocation rejects unknown grouping", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Allocation(w, analysisRequest("allocation", url.Values{"groupBy": {"sector"}}))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

// TestAnalysisHandler_Export tests the GET /api/portfolio/{portfolioId}/export endpoint.
//
// WHY: The export is downloaded by the browser, so the attachment headers
// matter as much as the body.
func TestAnalysisHandler_Export(t *testing.T) {
	t.Run("writes a CSV attachment", func(t *testing.T) {
		handler := newSyncedAnalysisHandler(t)
		w := httptest.NewRecorder()

		handler.Export(w, analysisRequest("export", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
			t.Errorf("Unexpected Content-Type: %s", ct)
		}
		if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="kinvo-1001.csv"` {
			t.Errorf("Unexpected Content-Disposition: %s", cd)
		}

		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		if len(lines) != 4 {
			t.Errorf("Expected header and 3 rows, got %d lines", len(lines))
		}
	})

	t.Run("reports a missing snapshot as JSON", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.NewPortfolio().WithID(1001).Build(t, db)
		handler := handlers.NewAnalysisHandler(testutil.NewTestAnalysisService(t, db))
		w := httptest.NewRecorder()

		handler.Export(w, analysisRequest("export", nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON error, got Content-Type %s", ct)
		}
	})
}
