package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"custodia/pkg/domain"
)

// TokenVerifier validates a bearer credential and returns the principal it
// identifies. Implemented by internal/token.
type TokenVerifier interface {
	Verify(token string) (domain.Identity, error)
}

type contextKeyIdentity struct{}

// ContextKeyIdentity is exported for use in handlers and tests.
var ContextKeyIdentity = contextKeyIdentity{}

// GetIdentity retrieves the authenticated identity from the context.
// The zero Identity is returned when no auth middleware ran.
func GetIdentity(ctx context.Context) domain.Identity {
	ident, ok := ctx.Value(ContextKeyIdentity).(domain.Identity)
	if !ok {
		return domain.Identity{}
	}
	return ident
}

// RequireAuth rejects requests without a valid bearer token and attaches the
// verified identity to the request context.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			ident, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyIdentity, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`)) //nolint:errcheck
}
