// Package httptransport assembles the HTTP surface: the websocket endpoint,
// the guardian-facing REST routes, and the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custodia/internal/platform/middleware"
)

// Registrar mounts a domain's routes on an authenticated router group.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router mounts.
type Deps struct {
	Verifier  middleware.TokenVerifier
	Logger    *slog.Logger
	Websocket http.Handler
	Routes    []Registrar
}

// NewRouter wires the full HTTP surface. Authenticated routes share the
// bearer-token middleware; the websocket endpoint does its own handshake
// authentication because browser clients cannot always set headers.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimiddleware.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Handle("/ws", deps.Websocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Verifier, deps.Logger))
		for _, reg := range deps.Routes {
			reg.Register(r)
		}
	})

	return r
}
