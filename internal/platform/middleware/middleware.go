package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
)

type contextKeyRequestID struct{}

// ContextKeyRequestID is exported for tests that inject request ids directly.
var ContextKeyRequestID = contextKeyRequestID{}

// GetRequestID retrieves the request id from the context.
func GetRequestID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyRequestID).(string)
	if !ok {
		return ""
	}
	return id
}

// RequestID assigns a request id to every request for log correlation.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), ContextKeyRequestID, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recovery converts handler panics into 500 responses instead of
// taking down the process.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "handler panic",
						"panic", rec,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error":"internal"}`)) //nolint:errcheck
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
