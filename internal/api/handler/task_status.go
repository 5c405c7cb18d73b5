package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sandeepmv/contentiq/internal/api/response"
	"github.com/sandeepmv/contentiq/internal/taskstore"
)

// NewTaskStatusHandler returns an http.HandlerFunc for GET /api/v1/analyze/{taskID}.
// Malformed ids are reported as not found rather than leaking the id format.
func NewTaskStatusHandler(svc Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "taskID"))
		if err != nil {
			response.Error(w, http.StatusNotFound, "TASK_NOT_FOUND", "Task not found", nil)
			return
		}

		task, err := svc.GetStatus(r.Context(), id)
		if err != nil {
			if errors.Is(err, taskstore.ErrTaskNotFound) {
				response.Error(w, http.StatusNotFound, "TASK_NOT_FOUND", "Task not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.JSON(w, task)
	}
}
