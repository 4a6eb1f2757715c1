package handlers

import (
	"net/http"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health checks the health of the system and database connectivity
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.systemService.CheckHealth(); err != nil {
		response := HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		}
		respondJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	response := HealthResponse{
		Status:   "healthy",
		Database: "connected",
	}
	respondJSON(w, http.StatusOK, response)
}

// Version returns the application version.
//
// Endpoint: GET /api/system/version
func (h *SystemHandler) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"version": h.systemService.CheckVersion(),
	})
}
