package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"custodia/pkg/domain"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 64
)

// Session is one live authenticated connection. The identity is immutable
// for the connection's lifetime; room memberships live in the Registry.
type Session struct {
	ID       uuid.UUID
	Identity domain.Identity
	Device   string

	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func newSession(conn *websocket.Conn, ident domain.Identity, device string) *Session {
	return &Session{
		ID:       uuid.New(),
		Identity: ident,
		Device:   device,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// enqueue hands a frame to the write pump without blocking. A full buffer
// means the client cannot keep up; the frame is dropped and false returned so
// the caller can decide to evict the session.
func (s *Session) enqueue(msg []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- msg:
		return true
	default:
		return false
	}
}

// close shuts the session down exactly once. Safe to call from any
// goroutine.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			s.conn.Close() //nolint:errcheck
		}
	})
}

// writePump drains the send buffer onto the connection. Runs as the sole
// writer goroutine for the connection, as the transport requires.
func (s *Session) writePump() {
	defer s.close()
	for {
		select {
		case msg, ok := <-s.send:
			if !ok {
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
