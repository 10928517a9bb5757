package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/middleware"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/request"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/response"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
)

// PortfolioHandler handles portfolio listing and sync HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	syncService      *service.SyncService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService, syncService *service.SyncService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		syncService:      syncService,
	}
}

// PortfoliosResponse represents one entry of the portfolio list
type PortfoliosResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	LastSyncedAt *time.Time `json:"lastSyncedAt"`
}

// Portfolios handles GET requests for the known portfolios.
//
// Endpoint: GET /api/portfolio
// Query parameters:
//   - refresh: "true" pulls the list from Kinvo first
//
// Response: 200 OK with []PortfoliosResponse
// Error: 400 for a malformed refresh flag, 502 if Kinvo fails
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	refresh := false
	if param := r.URL.Query().Get("refresh"); param != "" {
		var err error
		refresh, err = strconv.ParseBool(param)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid refresh parameter", err.Error())
			return
		}
	}

	portfolios, err := h.portfolioService.GetPortfolios(r.Context(), refresh)
	if err != nil {
		response.RespondServiceError(w, apperrors.ErrFailedToRetrievePortfolios.Error(), err)
		return
	}

	result := make([]PortfoliosResponse, len(portfolios))
	for i, p := range portfolios {
		result[i] = PortfoliosResponse{
			ID:           p.ID,
			Name:         p.Name,
			LastSyncedAt: p.LastSyncedAt,
		}
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Sync handles POST requests to sync a portfolio from Kinvo.
//
// Endpoint: POST /api/portfolio/{portfolioId}/sync
// Response: 201 Created with the successful model.SyncRun
// Error: 404 unknown portfolio, 409 sync already running, 502 Kinvo failure
// (details carry the failed run's error)
func (h *PortfolioHandler) Sync(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := middleware.PortfolioID(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid portfolio ID", err.Error())
		return
	}

	run, err := h.syncService.SyncPortfolio(r.Context(), portfolioID)
	if err != nil {
		response.RespondServiceError(w, apperrors.ErrFailedToSyncPortfolio.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, run)
}

// SyncRuns handles GET requests for the sync history of a portfolio, newest first.
//
// Endpoint: GET /api/portfolio/{portfolioId}/sync
// Query parameters:
//   - limit: 1 to 100 (defaults to 20)
//
// Response: 200 OK with []model.SyncRun
func (h *PortfolioHandler) SyncRuns(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := middleware.PortfolioID(r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid portfolio ID", err.Error())
		return
	}

	limit, err := request.ParseSyncRunLimit(r.URL.Query().Get("limit"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid limit", err.Error())
		return
	}

	runs, err := h.syncService.GetSyncRuns(r.Context(), portfolioID, limit)
	if err != nil {
		response.RespondServiceError(w, apperrors.ErrFailedToRetrieveSyncRuns.Error(), err)
		return
	}

	response.RespondJSON(w, http.StatusOK, runs)
}
