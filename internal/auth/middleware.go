package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ledgerline/expensed/internal/cache"
)

type claimsKey struct{}

// Middleware returns the bearer-token middleware protecting API routes.
// It rejects missing, malformed, expired, refresh, and revoked tokens.
func Middleware(issuer *Issuer, store cache.Cache, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := issuer.Verify(token)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}
			if claims.Refresh {
				unauthorized(w, ErrRefreshToken.Error())
				return
			}

			blocked, err := store.TokenBlocked(r.Context(), claims.JTI)
			if err != nil {
				// Redis being down must not lock users out.
				logger.Error("token blocklist check failed", "error", err)
			} else if blocked {
				unauthorized(w, "token has been revoked")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified claims set by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}

// UserID returns the authenticated user id, or uuid.Nil when the
// request did not pass through Middleware.
func UserID(ctx context.Context) uuid.UUID {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return uuid.Nil
}

// WithClaims injects claims into a context. Intended for tests.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": detail,
	})
}
