package handlers

import (
	"net/http"

	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/api/response"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/apperrors"
	"github.com/ndewijer/Kinvo-Analytics-Backend/internal/service"
)

// SystemHandler serves the health and version endpoints
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{systemService: systemService}
}

// HealthResponse reports whether the service can reach its database.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health handles GET requests from load balancers and container probes.
//
// Endpoint: GET /api/system/health
// Response: 200 OK with HealthResponse
// Error: 503 Service Unavailable when the database does not answer
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Database: "connected"}
	status := http.StatusOK

	if err := h.systemService.CheckHealth(r.Context()); err != nil {
		resp = HealthResponse{Status: "unhealthy", Database: "disconnected", Error: err.Error()}
		status = http.StatusServiceUnavailable
	}

	response.RespondJSON(w, status, resp)
}

// Version handles GET requests for the application and schema version and the
// optional features enabled by configuration (events, scheduled sync, stored credentials).
//
// Endpoint: GET /api/system/version
// Response: 200 OK with model.VersionInfo
// Error: 500 Internal Server Error if the schema version cannot be read
func (h *SystemHandler) Version(w http.ResponseWriter, r *http.Request) {
	info, err := h.systemService.CheckVersion(r.Context())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToGetVersionInfo.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, info)
}
