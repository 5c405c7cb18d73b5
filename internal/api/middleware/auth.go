package middleware

import (
	"net/http"
	"strings"

	"github.com/sandeepmv/contentiq/internal/api/response"
	"golang.org/x/crypto/bcrypt"
)

const keyPrefixLen = 8

// Auth authenticates requests against a configured set of bcrypt API key
// hashes. With no hashes configured, authentication is disabled and every
// request passes through. Keys are deployment-level credentials; there is no
// per-key identity beyond the prefix used for rate limiting.
type Auth struct {
	keyHashes []string
}

// NewAuth creates a new Auth middleware.
func NewAuth(keyHashes []string) *Auth {
	return &Auth{keyHashes: keyHashes}
}

// Authenticate validates the Bearer token against the configured hashes and
// sets key_prefix in the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.keyHashes) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		rawKey := extractBearerToken(r)
		if rawKey == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		if len(rawKey) < keyPrefixLen {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid API key format", nil)
			return
		}

		for _, hash := range a.keyHashes {
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawKey)) == nil {
				ctx := setKeyPrefix(r.Context(), rawKey[:keyPrefixLen])
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		response.Error(w, http.StatusUnauthorized,
			"INVALID_TOKEN", "Invalid API key", nil)
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
