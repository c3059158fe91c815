package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/go-broadcast-api/internal/infrastructure/jwt"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// SessionValidator checks that the session named by the token is still alive.
type SessionValidator interface {
	Validate(ctx context.Context, sessionID string) error
}

// Auth returns middleware that validates the Bearer JWT, checks the backing
// session record and injects claims into context. The session check runs on
// every request; nothing about the current user is cached in-process.
func Auth(provider *jwtinfra.Provider, sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := provider.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if sessions != nil {
				if err := sessions.Validate(r.Context(), claims.SessionID); err != nil {
					writeJSONError(w, http.StatusUnauthorized, "session expired")
					return
				}
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}
