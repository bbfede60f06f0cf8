package server

import (
	"net/http"
	"strings"

	"github.com/taanya/pylearn/internal/svcctx"
)

// requireAuth wraps handlers that need a valid session token. The
// authenticated username is attached to the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeAuthError(w, "missing bearer token")
			return
		}

		username, err := s.services.Authenticator.Verify(token)
		if err != nil {
			writeAuthError(w, "invalid or expired token")
			return
		}

		next(w, r.WithContext(svcctx.WithUser(r.Context(), username)))
	}
}

// rateLimit applies the per-client request budget to every route.
// Distinct from the embedding backend's call quota.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.TryConsume() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded, slow down"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
