package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopgate/internal/auth"
)

func TestAuthTokenMiddleware(t *testing.T) {
	h := newTestApplication(t)
	admin := h.createUser(t, "Ada Admin", "ada@example.com", "secret123", "Admin")

	t.Run("missing header", func(t *testing.T) {
		rr := h.do(t, http.MethodGet, "/v1/users/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "unauthorized", errorMessage(t, rr))
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/users/", nil)
		req.Header.Set("Authorization", "Token abc")
		rr := httptest.NewRecorder()
		h.mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rr := h.do(t, http.MethodGet, "/v1/users/", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		stale := auth.NewJWTAuthenticator(testTokenSecret, "shopgate-test", "shopgate-test", -time.Minute)
		token, err := stale.GenerateToken(admin.ID, admin.Role)
		require.NoError(t, err)

		rr := h.do(t, http.MethodGet, "/v1/users/", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		token := h.tokenFor(t, admin)
		require.NoError(t, h.app.revocations.Revoke(context.Background(), token))

		rr := h.do(t, http.MethodGet, "/v1/users/", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown subject", func(t *testing.T) {
		ghost, err := h.app.authenticator.GenerateToken(9999, "User")
		require.NoError(t, err)

		rr := h.do(t, http.MethodGet, "/v1/users/", ghost, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("inactive user", func(t *testing.T) {
		inactive := h.createUser(t, "Ivan Idle", "ivan@example.com", "secret123", "User")
		token := h.tokenFor(t, inactive)
		require.NoError(t, h.users.Deactivate(context.Background(), inactive.ID))

		rr := h.do(t, http.MethodGet, "/v1/users/", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "unauthorized", errorMessage(t, rr))
	})

	t.Run("valid token", func(t *testing.T) {
		rr := h.do(t, http.MethodGet, "/v1/users/", h.tokenFor(t, admin), nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestBasicAuthMiddleware(t *testing.T) {
	h := newTestApplication(t)
	h.app.config.auth.basic.user = "ops"
	h.app.config.auth.basic.pass = "opspass"

	t.Run("missing credentials", func(t *testing.T) {
		rr := h.do(t, http.MethodGet, "/v1/health", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("wrong credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		req.SetBasicAuth("ops", "wrong")
		rr := httptest.NewRecorder()
		h.mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
		req.SetBasicAuth("ops", "opspass")
		rr := httptest.NewRecorder()
		h.mux.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		data := decodeData[map[string]string](t, rr)
		assert.Equal(t, "ok", data["status"])
		assert.Equal(t, "test", data["env"])
	})
}
