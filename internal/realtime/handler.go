package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"custodia/internal/childstate"
	"custodia/internal/geofence"
	"custodia/internal/notification"
	"custodia/internal/platform/metrics"
	"custodia/internal/platform/middleware"
	"custodia/pkg/domain"
)

const defaultDevice = "Unknown"

// Evaluations accepts coordinates for asynchronous geofence evaluation.
// Implemented by the childstate pipeline.
type Evaluations interface {
	Submit(u childstate.Update) bool
}

// DistressSink fans a distress signal out to the child's guardians.
// Implemented by the notification dispatcher.
type DistressSink interface {
	DispatchDistress(ctx context.Context, childID domain.ChildID, payload notification.DistressPayload) (notification.FanOutResult, error)
}

// Links answers whether a guardian is associated with a child. Used to keep
// an authenticated guardian from watching arbitrary children.
type Links interface {
	IsLinked(ctx context.Context, guardianID domain.GuardianID, childID domain.ChildID) (bool, error)
}

// Handler upgrades connections, authenticates them, and routes the realtime
// protocol. One goroutine per connection reads; a second writes.
type Handler struct {
	registry    *Registry
	states      childstate.Store
	evaluations Evaluations
	distress    DistressSink
	links       Links
	verifier    middleware.TokenVerifier
	logger      *slog.Logger
	metrics     *metrics.Metrics
	upgrader    websocket.Upgrader
	now         func() time.Time
}

type HandlerOption func(*Handler)

// WithHandlerClock sets the clock used for event timestamps. For tests.
func WithHandlerClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

func NewHandler(
	registry *Registry,
	states childstate.Store,
	evaluations Evaluations,
	distress DistressSink,
	links Links,
	verifier middleware.TokenVerifier,
	logger *slog.Logger,
	m *metrics.Metrics,
	opts ...HandlerOption,
) *Handler {
	h := &Handler{
		registry:    registry,
		states:      states,
		evaluations: evaluations,
		distress:    distress,
		links:       links,
		verifier:    verifier,
		logger:      logger,
		metrics:     m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// bearerSubprotocol is the subprotocol name clients pair with a token when
// they cannot set an Authorization header (browser websocket API).
const bearerSubprotocol = "bearer"

// extractToken pulls the credential from the handshake: Authorization header,
// then the bearer subprotocol pair, then the token query parameter. First
// match wins.
func extractToken(r *http.Request) (token string, viaSubprotocol bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok && t != "" {
			return t, false
		}
	}
	protocols := websocket.Subprotocols(r)
	if len(protocols) == 2 && protocols[0] == bearerSubprotocol && protocols[1] != "" {
		return protocols[1], true
	}
	if t := r.URL.Query().Get("token"); t != "" {
		return t, false
	}
	return "", false
}

// ServeHTTP is the websocket endpoint. Authentication failure terminates the
// handshake before any session state exists.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, viaSubprotocol := extractToken(r)
	if token == "" {
		http.Error(w, "missing credential", http.StatusUnauthorized)
		return
	}
	ident, err := h.verifier.Verify(token)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket auth failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		http.Error(w, "invalid credential", http.StatusUnauthorized)
		return
	}

	var responseHeader http.Header
	if viaSubprotocol {
		responseHeader = http.Header{"Sec-WebSocket-Protocol": []string{bearerSubprotocol}}
	}
	conn, err := h.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	device := r.URL.Query().Get("device")
	if device == "" {
		device = defaultDevice
	}

	s := newSession(conn, ident, device)
	if !h.registry.Register(s) {
		conn.Close() //nolint:errcheck
		return
	}
	go s.writePump()

	h.logger.Info("session connected",
		"session_id", s.ID.String(),
		"role", string(ident.Role),
		"principal_id", ident.ID.String(),
	)

	if ident.Role == domain.RoleChild {
		room := RoomFor(ident.ChildID())
		h.registry.Join(room, s)
		h.broadcastStatus(s, true)
	}

	h.readLoop(s)
	h.disconnect(s)
}

func (h *Handler) readLoop(s *Session) {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			h.sendError(s, "malformed event frame", "malformed")
			continue
		}
		h.route(s, env)
	}
}

func (h *Handler) route(s *Session, env Envelope) {
	switch env.Event {
	case EventJoinChildRoom:
		h.handleJoin(s, env.Data)
	case EventLeaveChildRoom:
		h.handleLeave(s, env.Data)
	case EventUpdateLocation:
		h.handleUpdateLocation(s, env.Data)
	case EventChildOnline:
		h.handlePresence(s, true)
	case EventChildOffline:
		h.handlePresence(s, false)
	case EventRequestLocation:
		h.handleRequestLocation(s, env.Data)
	case EventDistressSignal:
		h.handleDistressSignal(s, env.Data)
	default:
		h.sendError(s, "unknown event: "+env.Event, "unknown_event")
	}
}

// disconnect runs once when the read loop exits. A child session fires
// exactly one offline presence broadcast to its room before its memberships
// are released, whether or not it ever sent childOffline.
func (h *Handler) disconnect(s *Session) {
	if s.Identity.Role == domain.RoleChild {
		h.broadcastStatus(s, false)
	}
	h.registry.Unregister(s)
	s.close()
	h.logger.Info("session disconnected", "session_id", s.ID.String())
}

func (h *Handler) broadcastStatus(s *Session, online bool) {
	childID := s.Identity.ChildID()
	h.registry.Broadcast(RoomFor(childID), EventChildStatusChanged, childStatusChangedPayload{
		ChildID:   childID.String(),
		Online:    online,
		Device:    s.Device,
		Timestamp: h.timestamp(),
	}, s)
}

func (h *Handler) handleJoin(s *Session, data json.RawMessage) {
	childID, ok := h.parseRoomTarget(s, data)
	if !ok {
		return
	}

	switch s.Identity.Role {
	case domain.RoleGuardian:
		linked, err := h.links.IsLinked(context.Background(), s.Identity.GuardianID(), childID)
		if err != nil {
			h.logger.Error("link check failed",
				"session_id", s.ID.String(),
				"error", err,
			)
			h.sendError(s, "could not verify access to this child", "link_check_failed")
			return
		}
		if !linked {
			h.sendError(s, "not linked to this child", "not_linked")
			return
		}
	case domain.RoleChild:
		if s.Identity.ChildID() != childID {
			h.sendError(s, "children may only join their own room", "forbidden")
			return
		}
	}

	room := RoomFor(childID)
	h.registry.Join(room, s)
	h.registry.Send(s, EventJoined, joinedPayload{Room: room, ChildID: childID.String()})
}

func (h *Handler) handleLeave(s *Session, data json.RawMessage) {
	childID, ok := h.parseRoomTarget(s, data)
	if !ok {
		return
	}
	room := RoomFor(childID)
	h.registry.Leave(room, s)
	h.registry.Send(s, EventLeft, joinedPayload{Room: room, ChildID: childID.String()})
}

func (h *Handler) parseRoomTarget(s *Session, data json.RawMessage) (domain.ChildID, bool) {
	var req roomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(s, "malformed payload", "malformed")
		return domain.ChildID{}, false
	}
	childID, err := domain.ParseChildID(req.ChildID)
	if err != nil {
		h.sendError(s, "invalid childId", "invalid_child_id")
		return domain.ChildID{}, false
	}
	return childID, true
}

// handleUpdateLocation is the hot path: persist raw fields, broadcast
// immediately, then queue the geofence evaluation. The broadcast never waits
// on evaluation.
func (h *Handler) handleUpdateLocation(s *Session, data json.RawMessage) {
	if s.Identity.Role != domain.RoleChild {
		h.sendError(s, "only children may report locations", "forbidden")
		return
	}
	var req updateLocationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(s, "malformed payload", "malformed")
		return
	}
	if !geofence.ValidCoordinate(req.Lat, req.Lng) {
		h.sendError(s, "coordinate out of range", "invalid_coordinate")
		return
	}

	childID := s.Identity.ChildID()
	device := req.Device
	if device == "" {
		device = s.Device
	}
	now := h.now()

	ctx := context.Background()
	if err := h.states.SetLocation(ctx, childID, req.Lat, req.Lng, req.Battery, device, now); err != nil {
		h.logger.Error("location write failed",
			"child_id", childID.String(),
			"error", err,
		)
		h.sendError(s, "could not record location", "state_write_failed")
		return
	}

	h.registry.Broadcast(RoomFor(childID), EventLocationUpdated, locationUpdatedPayload{
		ChildID:   childID.String(),
		Lat:       req.Lat,
		Lng:       req.Lng,
		Battery:   req.Battery,
		Status:    req.Status,
		Device:    device,
		Timestamp: now.UTC().Format(time.RFC3339),
	}, s)

	h.evaluations.Submit(childstate.Update{
		ChildID: childID,
		Point:   geofence.Point{Lat: req.Lat, Lng: req.Lng},
		At:      now,
	})
}

func (h *Handler) handlePresence(s *Session, online bool) {
	if s.Identity.Role != domain.RoleChild {
		h.sendError(s, "only children report presence", "forbidden")
		return
	}
	h.broadcastStatus(s, online)
}

func (h *Handler) handleRequestLocation(s *Session, data json.RawMessage) {
	if s.Identity.Role != domain.RoleGuardian {
		h.sendError(s, "only guardians may request a location", "forbidden")
		return
	}
	var req roomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(s, "malformed payload", "malformed")
		return
	}
	childID, err := domain.ParseChildID(req.ChildID)
	if err != nil {
		h.sendError(s, "invalid childId", "invalid_child_id")
		return
	}

	linked, err := h.links.IsLinked(context.Background(), s.Identity.GuardianID(), childID)
	if err != nil {
		h.logger.Error("link check failed",
			"session_id", s.ID.String(),
			"error", err,
		)
		h.sendError(s, "could not verify access to this child", "link_check_failed")
		return
	}
	if !linked {
		h.sendError(s, "not linked to this child", "not_linked")
		return
	}

	h.registry.Broadcast(RoomFor(childID), EventLocationRequested, locationRequestedPayload{
		RequestedBy: s.Identity.GuardianID().String(),
		ChildID:     childID.String(),
	}, nil)
}

// handleDistressSignal broadcasts the alert to the room first, then hands
// the fan-out to the dispatcher. The notification payload prefers the
// signal's own coordinate, falls back to the last recorded one, and carries
// an explicit unavailable marker when neither exists.
func (h *Handler) handleDistressSignal(s *Session, data json.RawMessage) {
	if s.Identity.Role != domain.RoleChild {
		h.sendError(s, "only children may signal distress", "forbidden")
		return
	}
	var req distressSignalRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendError(s, "malformed payload", "malformed")
		return
	}

	childID := s.Identity.ChildID()
	at := h.now()
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	h.registry.Broadcast(RoomFor(childID), EventDistressAlert, distressAlertPayload{
		ChildID:   childID.String(),
		Lat:       req.Lat,
		Lng:       req.Lng,
		Timestamp: at.UTC().Format(time.RFC3339),
	}, s)

	payload := notification.DistressPayload{ChildID: childID}
	ctx := context.Background()
	switch {
	case geofence.ValidCoordinate(req.Lat, req.Lng) && (req.Lat != 0 || req.Lng != 0):
		payload.Lat, payload.Lng, payload.LocationKnown = req.Lat, req.Lng, true
	default:
		if state, ok, err := h.states.Get(ctx, childID); err == nil && ok {
			payload.Lat, payload.Lng, payload.LocationKnown = state.Latitude, state.Longitude, true
		}
	}

	res, err := h.distress.DispatchDistress(ctx, childID, payload)
	if err != nil {
		h.logger.Error("distress fan-out failed",
			"child_id", childID.String(),
			"error", err,
		)
		return
	}
	h.logger.Info("distress signal dispatched",
		"child_id", childID.String(),
		"notified", res.Sent,
	)
}

func (h *Handler) sendError(s *Session, message, reason string) {
	h.metrics.SessionErrors.WithLabelValues(reason).Inc()
	h.registry.Send(s, EventError, errorPayload{Message: message})
}

func (h *Handler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}
