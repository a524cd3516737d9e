package guardian

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"custodia/internal/platform/middleware"
	"custodia/internal/transport/http/shared"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Handler exposes the guardian device-registration endpoint.
type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts the guardian routes. The router must already run the auth
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.Patch("/users/push-token", h.handleSetPushToken)
	r.Delete("/users/push-token", h.handleClearPushToken)
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

func (h *Handler) handleSetPushToken(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())
	if ident.Role != domain.RoleGuardian {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "guardian role required"))
		return
	}

	var req pushTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token is required"))
		return
	}

	if err := h.store.SetPushAddress(r.Context(), ident.GuardianID(), req.Token); err != nil {
		h.logger.ErrorContext(r.Context(), "set push token failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"guardian_id", ident.GuardianID().String(),
			"error", err,
		)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "set push token"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

func (h *Handler) handleClearPushToken(w http.ResponseWriter, r *http.Request) {
	ident := middleware.GetIdentity(r.Context())
	if ident.Role != domain.RoleGuardian {
		shared.WriteError(w, dErrors.New(dErrors.CodeForbidden, "guardian role required"))
		return
	}

	addr, ok, err := h.store.PushAddress(r.Context(), ident.GuardianID())
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "clear push token"))
		return
	}
	if ok {
		if err := h.store.ClearPushAddress(r.Context(), ident.GuardianID(), addr); err != nil {
			shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "clear push token"))
			return
		}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
