package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/middleware"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/request"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/response"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
)

// AnalysisHandler handles the dashboard HTTP requests of a portfolio.
// Every endpoint reads the latest snapshot; none of them calls Kinvo.
type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
	}
}

// parseAnalysisRequest reads the portfolio ID and the analysis window.
// It writes the 400 response itself and reports whether the request may proceed.
func parseAnalysisRequest(w http.ResponseWriter, r *http.Request) (int64, service.Query, bool) {
	portfolioID, err := middleware.PortfolioID(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid portfolio ID", err.Error())
		return 0, service.Query{}, false
	}

	params := r.URL.Query()
	q, err := request.ParseAnalysisQuery(
		params.Get("interval"),
		params.Get("from"),
		params.Get("to"),
		params.Get("granularity"),
	)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid query parameters", err.Error())
		return 0, service.Query{}, false
	}
	return portfolioID, q, true
}

// Summary handles GET requests for the bucketed summary table and its total.
//
// Endpoint: GET /api/portfolio/{portfolioId}/summary
// Query parameters: interval, from, to, granularity
// Response: 200 OK with service.Summary
// Error: 404 if the portfolio is unknown or was never synced
func (h *AnalysisHandler) Summary(w http.ResponseWriter, r *http.Request) {
	portfolioID, q, ok := parseAnalysisRequest(w, r)
	if !ok {
		return
	}

	summary, err := h.analysisService.Summary(r.Context(), portfolioID, q)
	if err != nil {
		response.RespondServiceError(w, apperrors.ErrFailedToGetSummary.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}

// Profitability handles GET requests for the profitability chart.
//
// Endpoint: GET /api/portfolio/{portfolioId}/profitability
// Query parameters: interval, from, to, granularity
// Response: 200 OK with service.Profitability
func (h *AnalysisHandler) Profitability(w http.ResponseWriter, r *http.Request) {
	portfolioID, q, ok := parseAnalysisRequest(w, r)
	if !ok {
		return
	}

	result, err := h.analysisService.Profitability(r.Context(), portfolioID, q)
	if err != nil {
		response.RespondServiceError(w, apperrors.ErrFailedToGetProfitability.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// NetWorth handles GET requests for the net worth chart.
//
// Endpoint: GET /api/portfolio/{portfolioId}/net-worth
// Query parameters: interval, from, to, granularity
// Response: 200 OK with service.NetWorth
func (h *AnalysisHandler) NetWorth(w http.ResponseWriter, r *http.Request) {
	portfolioID, q, ok := parseAnalysisRequest(w, r)
	if !ok {
		return
	}

	result, err := h.analysisService.NetWorth(r.Context(), portfolioID, q)
	if err != nil {
		response.RespondServiceError(w, apperrors.ErrFailedToGetNetWorth.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Allocation handles GET requests for the allocation breakdown.
//
// Endpoint: GET /api/portfolio/{portfolioId}/allocation
// Query parameters:
//   - groupBy: strategy, class or institution (defaults to strategy)
//
// Response: 200 OK with service.Allocation
func (h *AnalysisHandler) Allocation(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := middleware.PortfolioID(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid portfolio ID", err.Error())
		return
	}

	by, err := request.ParseAllocationGrouping(r.URL.Query().Get("groupBy"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid groupBy parameter", err.Error())
		return
	}

	result, err := h.analysisService.Allocation(r.Context(), portfolioID, by)
	if err != nil {
		response.RespondServiceError(w, apperrors.ErrFailedToGetAllocation.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Export handles GET requests for the CSV export of the summary rows.
//
// Endpoint: GET /api/portfolio/{portfolioId}/export
// Query parameters: interval, from, to, granularity
// Response: 200 OK with a text/csv attachment
func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	portfolioID, q, ok := parseAnalysisRequest(w, r)
	if !ok {
		return
	}

	// Buffered so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.analysisService.Export(r.Context(), &buf, portfolioID, q); err != nil {
		response.RespondServiceError(w, apperrors.ErrFailedToExport.Error(), err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="kinvo-%d.csv"`, portfolioID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}
