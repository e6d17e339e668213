package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"

	"github.com/tapcardapp/tapcard/internal/auth"
	"github.com/tapcardapp/tapcard/internal/models"
	"github.com/tapcardapp/tapcard/internal/observability"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

func withClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

// RequireAuth verifies the bearer token and stores its claims on the context.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meter := observability.MeterFromContext(r.Context())

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			meter.Count("auth.rejected", 1, sentry.WithAttributes(
				attribute.String("reason", "missing_token"),
			))
			respondError(w, http.StatusUnauthorized, "authorization required")
			return
		}

		claims, err := h.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			meter.Count("auth.rejected", 1, sentry.WithAttributes(
				attribute.String("reason", "invalid_token"),
			))
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// RequireAdmin allows only admin tokens through. Must run after RequireAuth.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Role != models.RoleAdmin {
			observability.MeterFromContext(r.Context()).Count("auth.rejected", 1, sentry.WithAttributes(
				attribute.String("reason", "not_admin"),
			))
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// mustClaims returns the authenticated claims or writes a 401. Handlers
// behind RequireAuth always get claims; this guards against a misrouted
// registration.
func mustClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "authorization required")
		return nil, false
	}
	return claims, true
}

// requireSelfOrAdmin lets a customer act on their own resources while admins
// act on anyone's. Returns false after writing the response when denied.
func (h *Handlers) requireSelfOrAdmin(w http.ResponseWriter, r *http.Request, ownerID uuid.UUID) bool {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		respondError(w, http.StatusUnauthorized, "authorization required")
		return false
	}
	if claims.Role == models.RoleAdmin || claims.UserID == ownerID {
		return true
	}
	respondError(w, http.StatusForbidden, "forbidden")
	return false
}
