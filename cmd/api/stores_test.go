package main

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopgate/internal/store"
)

func TestCreateStore(t *testing.T) {
	h := newTestApplication(t)
	user := h.createUser(t, "Sven Shop", "sven@example.com", "secret123", "User")
	token := h.tokenFor(t, user)

	rr := h.do(t, http.MethodPost, "/v1/stores/", token, map[string]string{
		"name":    "Corner Shop",
		"address": "1 Main St",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	created := decodeData[store.Store](t, rr)
	assert.Equal(t, user.ID, created.OwnerID)
	assert.True(t, created.IsActive)

	// Store names are unique.
	rr = h.do(t, http.MethodPost, "/v1/stores/", token, map[string]string{
		"name":    "Corner Shop",
		"address": "2 Side St",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStoreOwnershipScope(t *testing.T) {
	h := newTestApplication(t)
	sven := h.createUser(t, "Sven Shop", "sven@example.com", "secret123", "User")
	nora := h.createUser(t, "Nora Next", "nora@example.com", "secret123", "User")

	rr := h.do(t, http.MethodPost, "/v1/stores/", h.tokenFor(t, sven), map[string]string{
		"name":    "Corner Shop",
		"address": "1 Main St",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decodeData[store.Store](t, rr)
	target := fmt.Sprintf("/v1/stores/%d", created.ID)

	rr = h.do(t, http.MethodGet, "/v1/stores/", h.tokenFor(t, nora), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeData[[]store.Store](t, rr))

	rr = h.do(t, http.MethodPut, target, h.tokenFor(t, nora), map[string]string{
		"name":    "Taken Over",
		"address": "1 Main St",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = h.do(t, http.MethodPut, target, h.tokenFor(t, sven), map[string]string{
		"name":    "Corner Shop Deluxe",
		"address": "1 Main St",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Corner Shop Deluxe", decodeData[store.Store](t, rr).Name)
}
