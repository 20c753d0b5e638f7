package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type claimsContextKey struct{}

// ContextWithClaims attaches verified claims to a request context.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext extracts verified claims from a request context.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*Claims)
	return claims, ok
}

// TokenFromRequest pulls the bearer credential from the Authorization header
// or the token cookie. Returns ErrNoToken when neither is present.
func TokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], nil
		}
		return "", ErrInvalidToken
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", ErrNoToken
}

// Middleware authenticates HTTP requests: revocation lookup first (fail
// closed on store error), then signature+expiry verification. Verified
// claims are attached to the request context.
func Middleware(tm *TokenManager, revocations RevocationStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := TokenFromRequest(r)
			if err != nil {
				http.Error(w, "unauthorized: token missing", http.StatusUnauthorized)
				return
			}

			revoked, err := revocations.IsRevoked(r.Context(), token)
			if err != nil {
				// A revocation-store outage must never read as "not
				// revoked".
				logger.Error("revocation store unavailable", "error", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if revoked {
				http.Error(w, "unauthorized: token revoked", http.StatusUnauthorized)
				return
			}

			claims, err := tm.Verify(token)
			if err != nil {
				if errors.Is(err, ErrExpiredToken) {
					http.Error(w, "unauthorized: token expired", http.StatusUnauthorized)
					return
				}
				http.Error(w, "unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}
