package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/sandeepmv/contentiq/internal/api/response"
	"github.com/sandeepmv/contentiq/internal/cache"
)

const (
	defaultRequestsPerMinute = 60
	rateLimitWindow          = time.Minute
)

// RateLimit enforces a fixed-window request quota per API key, counted
// in Redis. Analysis submissions and status polls share one budget.
type RateLimit struct {
	cache          cache.Cache
	requestsPerMin int
}

func NewRateLimit(c cache.Cache, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{cache: c, requestsPerMin: requestsPerMin}
}

// Limit counts the request against the key prefix placed in the context by
// Authenticate. Requests without a prefix (auth disabled or public routes)
// are not limited, and the limiter fails open when Redis is unreachable.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix, ok := getKeyPrefix(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		count, err := rl.cache.IncrWithExpiry(r.Context(), cache.RateLimitKey(prefix), rateLimitWindow)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		rl.writeQuotaHeaders(w, count)

		if count > int64(rl.requestsPerMin) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimit) writeQuotaHeaders(w http.ResponseWriter, count int64) {
	remaining := rl.requestsPerMin - int(count)
	if remaining < 0 {
		remaining = 0
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(rateLimitWindow).Unix(), 10))
}
