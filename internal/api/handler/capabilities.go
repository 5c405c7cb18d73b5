package handler

import (
	"net/http"

	"github.com/sandeepmv/contentiq/internal/api/response"
)

// NewCapabilitiesHandler returns an http.HandlerFunc for GET /api/v1/analyzers.
func NewCapabilitiesHandler(svc Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, svc.Capabilities())
	}
}
