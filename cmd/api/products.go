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

const productsElement = "Products"

type CreateProductPayload struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	PriceCents  int64  `json:"price_cents" validate:"required,gt=0"`
	StoreID     int64  `json:"store_id" validate:"required,gt=0"`
}

// createProductHandler godoc
//
//	@Summary		Create a product
//	@Description	Creates a product owned by the caller; ownership is stamped in the same insert.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateProductPayload	true	"Product"
//	@Success		201		{object}	store.Product
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	if !app.requireCollectionAccess(w, r, productsElement, authz.ActionCreate) {
		return
	}

	var payload CreateProductPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	product := &store.Product{
		Name:        payload.Name,
		Description: payload.Description,
		PriceCents:  payload.PriceCents,
		StoreID:     payload.StoreID,
		OwnerID:     user.ID,
	}

	if err := app.store.Products.Create(r.Context(), product); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	Lists products; callers without read_all only see products they own.
//	@Tags			products
//	@Produce		json
//	@Success		200	{array}		store.Product
//	@Failure		401	{object}	error
//	@Failure		403	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := app.listScope(w, r, productsElement)
	if !ok {
		return
	}

	products, err := app.store.Products.List(r.Context(), ownerID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, products); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getProductHandler godoc
//
//	@Summary		Retrieve a product
//	@Tags			products
//	@Produce		json
//	@Param			productID	path		int	true	"Product ID"
//	@Success		200			{object}	store.Product
//	@Failure		401			{object}	error
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/products/{productID} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := app.productFromURL(w, r)
	if !ok {
		return
	}

	if !app.requireObjectAccess(w, r, productsElement, authz.ActionRetrieve, product.OwnerID) {
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateProductPayload struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	PriceCents  int64  `json:"price_cents" validate:"required,gt=0"`
	StoreID     int64  `json:"store_id" validate:"required,gt=0"`
	IsActive    *bool  `json:"is_active"`
}

// updateProductHandler godoc
//
//	@Summary		Update a product
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		int						true	"Product ID"
//	@Param			payload		body		UpdateProductPayload	true	"Changes"
//	@Success		200			{object}	store.Product
//	@Failure		400			{object}	error
//	@Failure		401			{object}	error
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/products/{productID} [put]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	app.modifyProduct(w, r, authz.ActionUpdate)
}

// patchProductHandler handles partial updates; the permission mapping is the
// same as for a full update.
//
//	@Summary		Partially update a product
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		int						true	"Product ID"
//	@Param			payload		body		UpdateProductPayload	true	"Changes"
//	@Success		200			{object}	store.Product
//	@Failure		400			{object}	error
//	@Failure		401			{object}	error
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/products/{productID} [patch]
func (app *application) patchProductHandler(w http.ResponseWriter, r *http.Request) {
	app.modifyProduct(w, r, authz.ActionPartialUpdate)
}

func (app *application) modifyProduct(w http.ResponseWriter, r *http.Request, action authz.Action) {
	product, ok := app.productFromURL(w, r)
	if !ok {
		return
	}

	var payload struct {
		Name        *string `json:"name" validate:"omitempty,max=255"`
		Description *string `json:"description" validate:"omitempty,max=2000"`
		PriceCents  *int64  `json:"price_cents" validate:"omitempty,gt=0"`
		StoreID     *int64  `json:"store_id" validate:"omitempty,gt=0"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if !app.requireObjectAccess(w, r, productsElement, action, product.OwnerID) {
		return
	}

	if payload.Name != nil {
		product.Name = *payload.Name
	}
	if payload.Description != nil {
		product.Description = *payload.Description
	}
	if payload.PriceCents != nil {
		product.PriceCents = *payload.PriceCents
	}
	if payload.StoreID != nil {
		product.StoreID = *payload.StoreID
	}
	if payload.IsActive != nil {
		product.IsActive = *payload.IsActive
	}

	if err := app.store.Products.Update(r.Context(), product); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteProductHandler godoc
//
//	@Summary		Delete a product
//	@Tags			products
//	@Produce		json
//	@Param			productID	path		int					true	"Product ID"
//	@Success		200			{object}	map[string]string	"Confirmation"
//	@Failure		400			{object}	error
//	@Failure		401			{object}	error
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/products/{productID} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := app.productFromURL(w, r)
	if !ok {
		return
	}

	if !app.requireObjectAccess(w, r, productsElement, authz.ActionDelete, product.OwnerID) {
		return
	}

	if err := app.store.Products.Delete(r.Context(), product.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "product deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) productFromURL(w http.ResponseWriter, r *http.Request) (*store.Product, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid productID"))
		return nil, false
	}

	product, err := app.store.Products.GetByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return nil, false
		}
		app.internalServerError(w, r, err)
		return nil, false
	}
	return product, true
}
