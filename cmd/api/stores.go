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

const storesElement = "Stores"

type CreateStorePayload struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"max=2000"`
}

// createStoreHandler godoc
//
//	@Summary		Create a store
//	@Tags			stores
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateStorePayload	true	"Store"
//	@Success		201		{object}	store.Store
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/stores [post]
func (app *application) createStoreHandler(w http.ResponseWriter, r *http.Request) {
	if !app.requireCollectionAccess(w, r, storesElement, authz.ActionCreate) {
		return
	}

	var payload CreateStorePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := getUserFromContext(r)

	s := &store.Store{
		Name:    payload.Name,
		Address: payload.Address,
		OwnerID: user.ID,
	}

	if err := app.store.Stores.Create(r.Context(), s); err != nil {
		if errors.Is(err, store.ErrConflict) {
			app.badRequestResponse(w, r, fmt.Errorf("a store with that name already exists"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, s); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listStoresHandler godoc
//
//	@Summary		List stores
//	@Description	Lists stores; callers without read_all only see stores they own.
//	@Tags			stores
//	@Produce		json
//	@Success		200	{array}		store.Store
//	@Failure		401	{object}	error
//	@Failure		403	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/stores [get]
func (app *application) listStoresHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := app.listScope(w, r, storesElement)
	if !ok {
		return
	}

	stores, err := app.store.Stores.List(r.Context(), ownerID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, stores); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getStoreHandler godoc
//
//	@Summary		Retrieve a store
//	@Tags			stores
//	@Produce		json
//	@Param			storeID	path		int	true	"Store ID"
//	@Success		200		{object}	store.Store
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/stores/{storeID} [get]
func (app *application) getStoreHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.storeFromURL(w, r)
	if !ok {
		return
	}

	if !app.requireObjectAccess(w, r, storesElement, authz.ActionRetrieve, s.OwnerID) {
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, s); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateStorePayload struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Address  *string `json:"address" validate:"omitempty,max=2000"`
	IsActive *bool   `json:"is_active"`
}

// updateStoreHandler godoc
//
//	@Summary		Update a store
//	@Tags			stores
//	@Accept			json
//	@Produce		json
//	@Param			storeID	path		int					true	"Store ID"
//	@Param			payload	body		UpdateStorePayload	true	"Changes"
//	@Success		200		{object}	store.Store
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/stores/{storeID} [put]
func (app *application) updateStoreHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.storeFromURL(w, r)
	if !ok {
		return
	}

	var payload UpdateStorePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if !app.requireObjectAccess(w, r, storesElement, authz.ActionUpdate, s.OwnerID) {
		return
	}

	if payload.Name != nil {
		s.Name = *payload.Name
	}
	if payload.Address != nil {
		s.Address = *payload.Address
	}
	if payload.IsActive != nil {
		s.IsActive = *payload.IsActive
	}

	if err := app.store.Stores.Update(r.Context(), s); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrConflict):
			app.badRequestResponse(w, r, fmt.Errorf("a store with that name already exists"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, s); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteStoreHandler godoc
//
//	@Summary		Delete a store
//	@Tags			stores
//	@Produce		json
//	@Param			storeID	path		int					true	"Store ID"
//	@Success		200		{object}	map[string]string	"Confirmation"
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/stores/{storeID} [delete]
func (app *application) deleteStoreHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := app.storeFromURL(w, r)
	if !ok {
		return
	}

	if !app.requireObjectAccess(w, r, storesElement, authz.ActionDelete, s.OwnerID) {
		return
	}

	if err := app.store.Stores.Delete(r.Context(), s.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "store deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) storeFromURL(w http.ResponseWriter, r *http.Request) (*store.Store, bool) {
	storeID, err := strconv.ParseInt(chi.URLParam(r, "storeID"), 10, 64)
	if err != nil || storeID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid storeID"))
		return nil, false
	}

	s, err := app.store.Stores.GetByID(r.Context(), storeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return nil, false
		}
		app.internalServerError(w, r, err)
		return nil, false
	}
	return s, true
}
