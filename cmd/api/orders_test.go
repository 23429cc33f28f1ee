package main

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopgate/internal/store"
)

func TestCreateOrder(t *testing.T) {
	h := newTestApplication(t)
	seller := h.createUser(t, "Sam Seller", "sam@example.com", "secret123", "User")
	buyer := h.createUser(t, "Bea Buyer", "bea@example.com", "secret123", "User")
	token := h.tokenFor(t, buyer)

	product := h.createProductAs(t, h.tokenFor(t, seller))

	t.Run("total priced from the product", func(t *testing.T) {
		rr := h.do(t, http.MethodPost, "/v1/orders/", token, map[string]any{
			"product_id": product.ID,
			"quantity":   3,
		})
		require.Equal(t, http.StatusCreated, rr.Code)

		order := decodeData[store.Order](t, rr)
		assert.Equal(t, product.PriceCents*3, order.TotalPriceCents)
		assert.Equal(t, buyer.ID, order.OwnerID)
		assert.Equal(t, store.OrderStatusPending, order.Status)
	})

	t.Run("explicit total wins", func(t *testing.T) {
		rr := h.do(t, http.MethodPost, "/v1/orders/", token, map[string]any{
			"product_id":        product.ID,
			"quantity":          2,
			"total_price_cents": 2500,
		})
		require.Equal(t, http.StatusCreated, rr.Code)

		order := decodeData[store.Order](t, rr)
		assert.EqualValues(t, 2500, order.TotalPriceCents)
	})

	t.Run("missing product", func(t *testing.T) {
		rr := h.do(t, http.MethodPost, "/v1/orders/", token, map[string]any{
			"product_id": 9999,
			"quantity":   1,
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid status", func(t *testing.T) {
		rr := h.do(t, http.MethodPost, "/v1/orders/", token, map[string]any{
			"product_id": product.ID,
			"quantity":   1,
			"status":     "teleported",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestOrderOwnershipScope(t *testing.T) {
	h := newTestApplication(t)
	seller := h.createUser(t, "Sam Seller", "sam@example.com", "secret123", "User")
	bea := h.createUser(t, "Bea Buyer", "bea@example.com", "secret123", "User")
	cal := h.createUser(t, "Cal Buyer", "cal@example.com", "secret123", "User")
	mod := h.createUser(t, "Mona Mod", "mona@example.com", "secret123", "Moderator")

	product := h.createProductAs(t, h.tokenFor(t, seller))

	rr := h.do(t, http.MethodPost, "/v1/orders/", h.tokenFor(t, bea), map[string]any{
		"product_id": product.ID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	order := decodeData[store.Order](t, rr)
	target := fmt.Sprintf("/v1/orders/%d", order.ID)

	// Another plain user neither sees the order in a listing nor retrieves
	// it directly.
	rr = h.do(t, http.MethodGet, "/v1/orders/", h.tokenFor(t, cal), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decodeData[[]store.Order](t, rr))

	rr = h.do(t, http.MethodGet, target, h.tokenFor(t, cal), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = h.do(t, http.MethodGet, target, h.tokenFor(t, mod), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	h := newTestApplication(t)
	buyer := h.createUser(t, "Bea Buyer", "bea@example.com", "secret123", "User")
	token := h.tokenFor(t, buyer)

	product := h.createProductAs(t, token)

	rr := h.do(t, http.MethodPost, "/v1/orders/", token, map[string]any{
		"product_id": product.ID,
		"quantity":   1,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	order := decodeData[store.Order](t, rr)
	target := fmt.Sprintf("/v1/orders/%d", order.ID)

	rr = h.do(t, http.MethodPut, target, token, map[string]any{
		"status": store.OrderStatusPaid,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, store.OrderStatusPaid, decodeData[store.Order](t, rr).Status)

	rr = h.do(t, http.MethodPut, target, token, map[string]any{
		"status": "lost",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
