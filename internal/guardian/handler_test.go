package guardian

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/internal/platform/middleware"
	"custodia/pkg/domain"
)

func newPushTokenRouter(store *InMemoryStore) chi.Router {
	r := chi.NewRouter()
	NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func doAs(t *testing.T, router chi.Router, ident domain.Identity, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyIdentity, ident))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSetPushToken(t *testing.T) {
	ctx := context.Background()

	t.Run("registers the token for the calling guardian", func(t *testing.T) {
		store := NewInMemoryStore()
		router := newPushTokenRouter(store)
		g := domain.NewGuardianID()
		ident := domain.Identity{ID: uuid.UUID(g), Role: domain.RoleGuardian}

		rec := doAs(t, router, ident, http.MethodPatch, "/users/push-token", `{"token":"fcm-abc"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		addr, ok, err := store.PushAddress(ctx, g)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "fcm-abc", addr)
	})

	t.Run("replaces a previously registered token", func(t *testing.T) {
		store := NewInMemoryStore()
		router := newPushTokenRouter(store)
		g := domain.NewGuardianID()
		ident := domain.Identity{ID: uuid.UUID(g), Role: domain.RoleGuardian}
		require.NoError(t, store.SetPushAddress(ctx, g, "old-token"))

		rec := doAs(t, router, ident, http.MethodPatch, "/users/push-token", `{"token":"new-token"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		addr, _, err := store.PushAddress(ctx, g)
		require.NoError(t, err)
		assert.Equal(t, "new-token", addr)
	})

	t.Run("rejects a blank token", func(t *testing.T) {
		store := NewInMemoryStore()
		router := newPushTokenRouter(store)
		ident := domain.Identity{ID: uuid.UUID(domain.NewGuardianID()), Role: domain.RoleGuardian}

		rec := doAs(t, router, ident, http.MethodPatch, "/users/push-token", `{"token":"   "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects child callers", func(t *testing.T) {
		store := NewInMemoryStore()
		router := newPushTokenRouter(store)
		ident := domain.Identity{ID: uuid.UUID(domain.NewChildID()), Role: domain.RoleChild}

		rec := doAs(t, router, ident, http.MethodPatch, "/users/push-token", `{"token":"fcm-abc"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestClearPushToken(t *testing.T) {
	ctx := context.Background()

	t.Run("clears the registered token", func(t *testing.T) {
		store := NewInMemoryStore()
		router := newPushTokenRouter(store)
		g := domain.NewGuardianID()
		ident := domain.Identity{ID: uuid.UUID(g), Role: domain.RoleGuardian}
		require.NoError(t, store.SetPushAddress(ctx, g, "fcm-abc"))

		rec := doAs(t, router, ident, http.MethodDelete, "/users/push-token", "")
		require.Equal(t, http.StatusOK, rec.Code)

		_, ok, err := store.PushAddress(ctx, g)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("is a no-op without a registered token", func(t *testing.T) {
		store := NewInMemoryStore()
		router := newPushTokenRouter(store)
		ident := domain.Identity{ID: uuid.UUID(domain.NewGuardianID()), Role: domain.RoleGuardian}

		rec := doAs(t, router, ident, http.MethodDelete, "/users/push-token", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
