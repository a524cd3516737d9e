package realtime

import (
	"log/slog"
	"sync"

	"custodia/internal/platform/metrics"
)

// Registry tracks live sessions and their room memberships. Created at
// process start, injected into the session handler, torn down at shutdown.
// Rooms exist implicitly while they have members and are garbage-collected
// once empty.
type Registry struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	rooms    map[string]map[*Session]struct{}
	sessions map[*Session]map[string]struct{}
	closed   bool
}

func NewRegistry(logger *slog.Logger, m *metrics.Metrics) *Registry {
	return &Registry{
		logger:   logger,
		metrics:  m,
		rooms:    make(map[string]map[*Session]struct{}),
		sessions: make(map[*Session]map[string]struct{}),
	}
}

// Register adds a session with no room memberships yet. Returns false after
// Shutdown.
func (r *Registry) Register(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	if _, ok := r.sessions[s]; !ok {
		r.sessions[s] = make(map[string]struct{})
		r.metrics.SessionsConnected.Inc()
	}
	return true
}

// Unregister removes the session and releases all its room memberships.
func (r *Registry) Unregister(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rooms, ok := r.sessions[s]
	if !ok {
		return
	}
	for room := range rooms {
		r.removeLocked(room, s)
	}
	delete(r.sessions, s)
	r.metrics.SessionsConnected.Dec()
}

// Join adds the session to a room. Unregistered sessions cannot join.
func (r *Registry) Join(room string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rooms, ok := r.sessions[s]
	if !ok {
		return
	}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Session]struct{})
		r.rooms[room] = members
	}
	members[s] = struct{}{}
	rooms[room] = struct{}{}
}

// Leave removes the session from a room. Idempotent.
func (r *Registry) Leave(room string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rooms, ok := r.sessions[s]; ok {
		delete(rooms, room)
	}
	r.removeLocked(room, s)
}

func (r *Registry) removeLocked(room string, s *Session) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// MembersOf returns a snapshot of the room's current members.
func (r *Registry) MembersOf(room string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]*Session, 0, len(r.rooms[room]))
	for s := range r.rooms[room] {
		members = append(members, s)
	}
	return members
}

// Broadcast marshals the event once and delivers it to every room member
// except the excluded session (pass nil to deliver to all, origin included).
// A member whose send buffer is full is evicted rather than allowed to stall
// the room.
func (r *Registry) Broadcast(room, event string, data any, except *Session) {
	msg, err := Encode(event, data)
	if err != nil {
		r.logger.Error("broadcast encode failed", "event", event, "error", err)
		return
	}

	r.mu.RLock()
	members := make([]*Session, 0, len(r.rooms[room]))
	for s := range r.rooms[room] {
		if s != except {
			members = append(members, s)
		}
	}
	r.mu.RUnlock()

	var slow []*Session
	for _, s := range members {
		if !s.enqueue(msg) {
			slow = append(slow, s)
		}
	}
	r.metrics.EventsBroadcast.WithLabelValues(event).Add(float64(len(members) - len(slow)))

	for _, s := range slow {
		r.logger.Warn("evicting slow session",
			"session_id", s.ID.String(),
			"room", room,
		)
		s.close()
		r.Unregister(s)
	}
}

// Send delivers an event to a single session.
func (r *Registry) Send(s *Session, event string, data any) {
	msg, err := Encode(event, data)
	if err != nil {
		r.logger.Error("send encode failed", "event", event, "error", err)
		return
	}
	if !s.enqueue(msg) {
		s.close()
		r.Unregister(s)
	}
}

// Shutdown closes every session and empties the registry. New registrations
// are refused afterwards.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.rooms = make(map[string]map[*Session]struct{})
	r.sessions = make(map[*Session]map[string]struct{})
	r.metrics.SessionsConnected.Set(0)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}
