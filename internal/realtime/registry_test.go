package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/platform/metrics"
	"custodia/pkg/domain"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)), metrics.NewWith(prometheus.NewRegistry()))
}

func newMemberSession() *Session {
	return newSession(nil, domain.Identity{Role: domain.RoleGuardian}, "test")
}

func drain(s *Session) []Envelope {
	var out []Envelope
	for {
		select {
		case msg := <-s.send:
			var env Envelope
			if err := json.Unmarshal(msg, &env); err == nil {
				out = append(out, env)
			}
		default:
			return out
		}
	}
}

func TestRegistryMembership(t *testing.T) {
	t.Run("join and leave", func(t *testing.T) {
		r := newTestRegistry()
		s := newMemberSession()
		require.True(t, r.Register(s))

		r.Join("child:abc", s)
		assert.Len(t, r.MembersOf("child:abc"), 1)

		r.Leave("child:abc", s)
		assert.Empty(t, r.MembersOf("child:abc"))
	})

	t.Run("leave is idempotent", func(t *testing.T) {
		r := newTestRegistry()
		s := newMemberSession()
		require.True(t, r.Register(s))

		r.Leave("child:abc", s)
		r.Join("child:abc", s)
		r.Leave("child:abc", s)
		r.Leave("child:abc", s)
		assert.Empty(t, r.MembersOf("child:abc"))
	})

	t.Run("unregistered sessions cannot join", func(t *testing.T) {
		r := newTestRegistry()
		s := newMemberSession()

		r.Join("child:abc", s)
		assert.Empty(t, r.MembersOf("child:abc"))
	})

	t.Run("unregister releases every membership", func(t *testing.T) {
		r := newTestRegistry()
		s := newMemberSession()
		require.True(t, r.Register(s))
		r.Join("child:a", s)
		r.Join("child:b", s)

		r.Unregister(s)
		assert.Empty(t, r.MembersOf("child:a"))
		assert.Empty(t, r.MembersOf("child:b"))
	})

	t.Run("empty rooms are garbage collected", func(t *testing.T) {
		r := newTestRegistry()
		s := newMemberSession()
		require.True(t, r.Register(s))
		r.Join("child:abc", s)
		r.Leave("child:abc", s)

		r.mu.RLock()
		defer r.mu.RUnlock()
		assert.NotContains(t, r.rooms, "child:abc")
	})
}

func TestRegistryBroadcast(t *testing.T) {
	t.Run("delivers one frame to every member", func(t *testing.T) {
		r := newTestRegistry()
		a, b := newMemberSession(), newMemberSession()
		require.True(t, r.Register(a))
		require.True(t, r.Register(b))
		r.Join("child:abc", a)
		r.Join("child:abc", b)

		r.Broadcast("child:abc", EventLocationUpdated, locationUpdatedPayload{ChildID: "c1"}, nil)

		for _, s := range []*Session{a, b} {
			frames := drain(s)
			require.Len(t, frames, 1)
			assert.Equal(t, EventLocationUpdated, frames[0].Event)
		}
	})

	t.Run("excludes the origin session when asked", func(t *testing.T) {
		r := newTestRegistry()
		origin, other := newMemberSession(), newMemberSession()
		require.True(t, r.Register(origin))
		require.True(t, r.Register(other))
		r.Join("child:abc", origin)
		r.Join("child:abc", other)

		r.Broadcast("child:abc", EventLocationUpdated, locationUpdatedPayload{}, origin)

		assert.Empty(t, drain(origin))
		assert.Len(t, drain(other), 1)
	})

	t.Run("nonmembers receive nothing", func(t *testing.T) {
		r := newTestRegistry()
		member, outsider := newMemberSession(), newMemberSession()
		require.True(t, r.Register(member))
		require.True(t, r.Register(outsider))
		r.Join("child:abc", member)

		r.Broadcast("child:abc", EventDistressAlert, distressAlertPayload{}, nil)

		assert.Len(t, drain(member), 1)
		assert.Empty(t, drain(outsider))
	})

	t.Run("evicts a member whose buffer is full", func(t *testing.T) {
		r := newTestRegistry()
		slow := newMemberSession()
		require.True(t, r.Register(slow))
		r.Join("child:abc", slow)
		for i := 0; i < sendBufferSize; i++ {
			require.True(t, slow.enqueue([]byte("x")))
		}

		r.Broadcast("child:abc", EventLocationUpdated, locationUpdatedPayload{}, nil)

		assert.Empty(t, r.MembersOf("child:abc"))
		select {
		case <-slow.done:
		default:
			t.Fatal("slow session not closed")
		}
	})
}

func TestRegistryShutdown(t *testing.T) {
	r := newTestRegistry()
	a, b := newMemberSession(), newMemberSession()
	require.True(t, r.Register(a))
	require.True(t, r.Register(b))
	r.Join("child:abc", a)

	r.Shutdown()

	for _, s := range []*Session{a, b} {
		select {
		case <-s.done:
		default:
			t.Fatal("session not closed on shutdown")
		}
	}
	assert.Empty(t, r.MembersOf("child:abc"))
	assert.False(t, r.Register(newMemberSession()), "registrations refused after shutdown")
}
