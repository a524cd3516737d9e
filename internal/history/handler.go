package history

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/platform/middleware"
	"custodia/internal/transport/http/shared"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Handler exposes the location-history endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the history routes. The router must already run the auth
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/children/{childID}/history/sync", h.handleSync)
	r.Get("/children/{childID}/history", h.handleList)
}

type sampleRequest struct {
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lng"`
	Battery    int       `json:"battery"`
	RecordedAt time.Time `json:"recordedAt"`
}

type syncRequest struct {
	Samples []sampleRequest `json:"samples"`
}

// handleSync accepts a batched upload from the child itself.
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	childID, err := domain.ParseChildID(chi.URLParam(r, "childID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	ident := middleware.GetIdentity(r.Context())
	if ident.Role != domain.RoleChild || ident.ChildID() != childID {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "children may only sync their own history"))
		return
	}

	var req syncRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	samples := make([]Sample, 0, len(req.Samples))
	for _, sm := range req.Samples {
		samples = append(samples, Sample{
			Latitude:   sm.Latitude,
			Longitude:  sm.Longitude,
			Battery:    sm.Battery,
			RecordedAt: sm.RecordedAt,
		})
	}

	accepted, err := h.service.SyncBatch(r.Context(), childID, samples)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"synced": accepted})
}

type entryResponse struct {
	ID         string  `json:"id"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lng"`
	Battery    int     `json:"battery"`
	RecordedAt string  `json:"recordedAt"`
	SyncedAt   string  `json:"syncedAt"`
}

// handleList serves a child's history to a linked guardian.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	childID, err := domain.ParseChildID(chi.URLParam(r, "childID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	ident := middleware.GetIdentity(r.Context())
	if ident.Role != domain.RoleGuardian {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "guardian role required"))
		return
	}

	var q Query
	qs := r.URL.Query()
	if v := qs.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid from timestamp"))
			return
		}
		q.From = from
	}
	if v := qs.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid to timestamp"))
			return
		}
		q.To = to
	}
	q.Limit, _ = strconv.Atoi(qs.Get("limit"))

	entries, err := h.service.List(r.Context(), ident.GuardianID(), childID, q)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:         e.ID.String(),
			Latitude:   e.Latitude,
			Longitude:  e.Longitude,
			Battery:    e.Battery,
			RecordedAt: e.RecordedAt.UTC().Format(time.RFC3339),
			SyncedAt:   e.SyncedAt.UTC().Format(time.RFC3339),
		})
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"entries": out})
}
