package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/sandeepmv/contentiq/internal/api/response"
)

// Recovery converts handler panics into a 500 error envelope. If the
// response already started streaming, the envelope is skipped since
// headers cannot be rewritten.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				)
				if !rec.wrote {
					response.Error(rec, http.StatusInternalServerError,
						"INTERNAL_ERROR", "An unexpected error occurred", nil)
				}
			}
		}()
		next.ServeHTTP(rec, r)
	})
}
