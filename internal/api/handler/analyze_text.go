package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sandeepmv/contentiq/internal/analysis"
	"github.com/sandeepmv/contentiq/internal/api/response"
	"github.com/sandeepmv/contentiq/pkg/models"
)

// NewAnalyzeTextHandler returns an http.HandlerFunc for POST /api/v1/analyze/text.
// Text analysis runs inline, so the returned task is already terminal.
func NewAnalyzeTextHandler(svc Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text    string         `json:"text"`
			Options models.Options `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		task, err := svc.SubmitText(r.Context(), req.Text, req.Options)
		if err != nil {
			switch {
			case errors.Is(err, analysis.ErrEmptyContent):
				response.Error(w, http.StatusBadRequest, "EMPTY_CONTENT",
					"text must not be empty", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.JSON(w, task)
	}
}
