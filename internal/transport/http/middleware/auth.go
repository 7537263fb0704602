package middleware

import (
	"context"
	"net/http"

	jwtinfra "github.com/tanveenambrose/EcoMoney/internal/infrastructure/jwt"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// CookieName is the session cookie carrying the signed token.
const CookieName = "token"

// TokenVerifier validates a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

// Auth returns middleware that validates the session cookie and injects claims into context.
// Handlers read the account id from the claims, never from the request body.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(CookieName)
			if err != nil || c.Value == "" {
				writeJSONError(w, http.StatusUnauthorized, "Not authorized, login again")
				return
			}
			claims, err := verifier.Verify(c.Value)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid or expired session, login again")
				return
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

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *jwtinfra.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
