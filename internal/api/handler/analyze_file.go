package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sandeepmv/contentiq/internal/analysis"
	"github.com/sandeepmv/contentiq/internal/api/response"
	"github.com/sandeepmv/contentiq/pkg/models"
)

// NewAnalyzeFileHandler returns an http.HandlerFunc for POST /api/v1/analyze/file.
// The request is multipart with a required "file" part and an optional
// "options" part holding a JSON object. Analysis runs in the background; the
// response is 202 with the task already in flight.
func NewAnalyzeFileHandler(svc Orchestrator, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
					"uploaded file exceeds the size limit", nil)
				return
			}
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"multipart form must include a file part", nil)
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"could not read uploaded file", nil)
			return
		}

		var opts models.Options
		if raw := r.FormValue("options"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &opts); err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"options must be a JSON object", nil)
				return
			}
		}

		contentType := header.Header.Get("Content-Type")
		task, err := svc.SubmitFile(r.Context(), header.Filename, contentType, content, opts)
		if err != nil {
			switch {
			case errors.Is(err, analysis.ErrEmptyContent):
				response.Error(w, http.StatusBadRequest, "EMPTY_CONTENT",
					"uploaded file must not be empty", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.Accepted(w, task)
	}
}
