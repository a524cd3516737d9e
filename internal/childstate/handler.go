package childstate

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/guardian"
	"custodia/internal/platform/middleware"
	"custodia/internal/transport/http/shared"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Handler serves the last-known location snapshot to linked guardians.
type Handler struct {
	states    Store
	guardians guardian.Store
	logger    *slog.Logger
}

func NewHandler(states Store, guardians guardian.Store, logger *slog.Logger) *Handler {
	return &Handler{states: states, guardians: guardians, logger: logger}
}

// Register mounts the child-state routes. The router must already run the
// auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/children/{childID}/location", h.handleGetLocation)
}

type locationResponse struct {
	ChildID       string  `json:"childId"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Battery       int     `json:"battery"`
	Device        string  `json:"device"`
	Status        string  `json:"status"`
	CurrentZoneID string  `json:"currentZoneId,omitempty"`
	LastUpdateAt  string  `json:"lastUpdateAt"`
}

func (h *Handler) handleGetLocation(w http.ResponseWriter, r *http.Request) {
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
	linked, err := h.guardians.IsLinked(r.Context(), ident.GuardianID(), childID)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "check guardian link"))
		return
	}
	if !linked {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "guardian is not linked to this child"))
		return
	}

	state, ok, err := h.states.Get(r.Context(), childID)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "read child state"))
		return
	}
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "child has not reported a location"))
		return
	}

	resp := locationResponse{
		ChildID:      state.ChildID.String(),
		Lat:          state.Latitude,
		Lng:          state.Longitude,
		Battery:      state.Battery,
		Device:       state.Device,
		Status:       string(state.Status),
		LastUpdateAt: state.LastUpdateAt.UTC().Format(time.RFC3339),
	}
	if !state.CurrentZoneID.IsNil() {
		resp.CurrentZoneID = state.CurrentZoneID.String()
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}
