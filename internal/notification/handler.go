package notification

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"custodia/internal/platform/middleware"
	"custodia/internal/transport/http/shared"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Handler exposes the guardian notification endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the notification routes. The router must already run the
// auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.handleList)
	r.Get("/notifications/unread-count", h.handleUnreadCount)
	r.Post("/notifications/mark-read", h.handleMarkRead)
	r.Post("/notifications/mark-all-read", h.handleMarkAllRead)
	r.Post("/notifications/delete", h.handleDelete)
}

func (h *Handler) guardianFrom(r *http.Request) (domain.GuardianID, error) {
	ident := middleware.GetIdentity(r.Context())
	if ident.Role != domain.RoleGuardian {
		return domain.GuardianID{}, dErrors.New(dErrors.CodeForbidden, "guardian role required")
	}
	return ident.GuardianID(), nil
}

type recordResponse struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

func toRecordResponse(rec Record) recordResponse {
	return recordResponse{
		ID:        rec.ID.String(),
		Message:   rec.Message,
		Category:  string(rec.Category),
		Read:      rec.Read,
		CreatedAt: rec.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	guardianID, err := h.guardianFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var f ListFilter
	q := r.URL.Query()
	if v := q.Get("category"); v != "" {
		cat := Category(v)
		f.Category = &cat
	}
	if v := q.Get("read"); v != "" {
		read, err := strconv.ParseBool(v)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid read filter"))
			return
		}
		f.Read = &read
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	res, err := h.service.List(r.Context(), guardianID, f)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list notifications failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}

	records := make([]recordResponse, 0, len(res.Notifications))
	for _, rec := range res.Notifications {
		records = append(records, toRecordResponse(rec))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": records,
		"total":         res.Total,
		"unreadCount":   res.UnreadCount,
	})
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	guardianID, err := h.guardianFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	count, err := h.service.UnreadCount(r.Context(), guardianID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"count": count})
}

type idsRequest struct {
	NotificationIDs []string `json:"notificationIds"`
}

func (h *Handler) decodeIDs(r *http.Request) ([]domain.NotificationID, error) {
	var req idsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	ids := make([]domain.NotificationID, 0, len(req.NotificationIDs))
	for _, raw := range req.NotificationIDs {
		id, err := domain.ParseNotificationID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	guardianID, err := h.guardianFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	ids, err := h.decodeIDs(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	updated, err := h.service.MarkRead(r.Context(), guardianID, ids)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	guardianID, err := h.guardianFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	updated, err := h.service.MarkAllRead(r.Context(), guardianID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	guardianID, err := h.guardianFrom(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	ids, err := h.decodeIDs(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	deleted, err := h.service.Delete(r.Context(), guardianID, ids)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
