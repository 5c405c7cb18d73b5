package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/sandeepmv/contentiq/internal/api/middleware"
	"github.com/sandeepmv/contentiq/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler       http.HandlerFunc
	AnalyzeTextHandler  http.HandlerFunc
	AnalyzeFileHandler  http.HandlerFunc
	TaskStatusHandler   http.HandlerFunc
	CapabilitiesHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/analyze/text", orNotImplemented(deps.AnalyzeTextHandler))
		r.Post("/api/v1/analyze/file", orNotImplemented(deps.AnalyzeFileHandler))
		r.Get("/api/v1/analyze/{taskID}", orNotImplemented(deps.TaskStatusHandler))

		r.Get("/api/v1/analyzers", orNotImplemented(deps.CapabilitiesHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
