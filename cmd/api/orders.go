package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"shopgate/internal/authz"
	"shopgate/internal/store"
)

const ordersElement = "Orders"

type CreateOrderPayload struct {
	ProductID       int64  `json:"product_id" validate:"required,gt=0"`
	Quantity        int32  `json:"quantity" validate:"required,gt=0"`
	TotalPriceCents int64  `json:"total_price_cents" validate:"omitempty,gt=0"`
	Status          string `json:"status"`
}

// createOrderHandler godoc
//
//	@Summary		Create an order
//	@Description	Creates an order for the caller. The total is priced from the product when omitted.
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateOrderPayload	true	"Order"
//	@Success		201		{object}	store.Order
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/orders [post]
func (app *application) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	if !app.requireCollectionAccess(w, r, ordersElement, authz.ActionCreate) {
		return
	}

	var payload CreateOrderPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Status != "" && !store.ValidOrderStatus(payload.Status) {
		app.badRequestResponse(w, r, fmt.Errorf("invalid order status %q", payload.Status))
		return
	}

	user := getUserFromContext(r)

	order := &store.Order{
		ProductID:       payload.ProductID,
		UserID:          user.ID,
		Quantity:        payload.Quantity,
		TotalPriceCents: payload.TotalPriceCents,
		Status:          payload.Status,
	}

	if err := app.store.Orders.Create(r.Context(), order); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, fmt.Errorf("product %d not found", payload.ProductID))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, order); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listOrdersHandler godoc
//
//	@Summary		List orders
//	@Description	Lists orders; callers without read_all only see orders they own.
//	@Tags			orders
//	@Produce		json
//	@Success		200	{array}		store.Order
//	@Failure		401	{object}	error
//	@Failure		403	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/orders [get]
func (app *application) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := app.listScope(w, r, ordersElement)
	if !ok {
		return
	}

	orders, err := app.store.Orders.List(r.Context(), ownerID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, orders); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getOrderHandler godoc
//
//	@Summary		Retrieve an order
//	@Tags			orders
//	@Produce		json
//	@Param			orderID	path		int	true	"Order ID"
//	@Success		200		{object}	store.Order
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/orders/{orderID} [get]
func (app *application) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, ok := app.orderFromURL(w, r)
	if !ok {
		return
	}

	if !app.requireObjectAccess(w, r, ordersElement, authz.ActionRetrieve, order.OwnerID) {
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, order); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateOrderPayload struct {
	Quantity        *int32  `json:"quantity" validate:"omitempty,gt=0"`
	TotalPriceCents *int64  `json:"total_price_cents" validate:"omitempty,gt=0"`
	Status          *string `json:"status"`
}

// updateOrderHandler godoc
//
//	@Summary		Update an order
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			orderID	path		int					true	"Order ID"
//	@Param			payload	body		UpdateOrderPayload	true	"Changes"
//	@Success		200		{object}	store.Order
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/orders/{orderID} [put]
func (app *application) updateOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, ok := app.orderFromURL(w, r)
	if !ok {
		return
	}

	var payload UpdateOrderPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Status != nil && !store.ValidOrderStatus(*payload.Status) {
		app.badRequestResponse(w, r, fmt.Errorf("invalid order status %q", *payload.Status))
		return
	}

	if !app.requireObjectAccess(w, r, ordersElement, authz.ActionUpdate, order.OwnerID) {
		return
	}

	if payload.Quantity != nil {
		order.Quantity = *payload.Quantity
	}
	if payload.TotalPriceCents != nil {
		order.TotalPriceCents = *payload.TotalPriceCents
	}
	if payload.Status != nil {
		order.Status = *payload.Status
	}

	if err := app.store.Orders.Update(r.Context(), order); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, order); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteOrderHandler godoc
//
//	@Summary		Delete an order
//	@Tags			orders
//	@Produce		json
//	@Param			orderID	path		int					true	"Order ID"
//	@Success		200		{object}	map[string]string	"Confirmation"
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/orders/{orderID} [delete]
func (app *application) deleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	order, ok := app.orderFromURL(w, r)
	if !ok {
		return
	}

	if !app.requireObjectAccess(w, r, ordersElement, authz.ActionDelete, order.OwnerID) {
		return
	}

	if err := app.store.Orders.Delete(r.Context(), order.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "order deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) orderFromURL(w http.ResponseWriter, r *http.Request) (*store.Order, bool) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || orderID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid orderID"))
		return nil, false
	}

	order, err := app.store.Orders.GetByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return nil, false
		}
		app.internalServerError(w, r, err)
		return nil, false
	}
	return order, true
}
