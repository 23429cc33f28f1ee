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

const usersElement = "Users"

// For the Users element, a row is "owned" by the account it describes.

// listUsersHandler godoc
//
//	@Summary		List users
//	@Description	Lists user accounts; callers without read_all only see their own row.
//	@Tags			users
//	@Produce		json
//	@Success		200	{array}		store.User
//	@Failure		401	{object}	error
//	@Failure		403	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users [get]
func (app *application) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := app.listScope(w, r, usersElement)
	if !ok {
		return
	}

	users, err := app.store.Users.List(r.Context(), ownerID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, users); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getUserHandler godoc
//
//	@Summary		Retrieve a user
//	@Tags			users
//	@Produce		json
//	@Param			userID	path		int	true	"User ID"
//	@Success		200		{object}	store.User
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/{userID} [get]
func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid userID"))
		return
	}

	target, err := app.store.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if !app.requireObjectAccess(w, r, usersElement, authz.ActionRetrieve, target.ID) {
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, target); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateUserPayload struct {
	FullName string `json:"full_name" validate:"required,max=255"`
}

// updateUserHandler godoc
//
//	@Summary		Update a user
//	@Description	Updates a user's display name, subject to the Users access rule.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		int					true	"User ID"
//	@Param			payload	body		UpdateUserPayload	true	"Changes"
//	@Success		200		{object}	map[string]string	"Confirmation"
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/{userID} [put]
func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid userID"))
		return
	}

	var payload UpdateUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	target, err := app.store.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if !app.requireObjectAccess(w, r, usersElement, authz.ActionUpdate, target.ID) {
		return
	}

	if err := app.store.Users.UpdateProfile(r.Context(), target.ID, &payload.FullName, nil); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "user updated"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteUserHandler godoc
//
//	@Summary		Delete a user
//	@Description	Soft-deletes the account by deactivating it.
//	@Tags			users
//	@Produce		json
//	@Param			userID	path		int					true	"User ID"
//	@Success		200		{object}	map[string]string	"Confirmation"
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/users/{userID} [delete]
func (app *application) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid userID"))
		return
	}

	target, err := app.store.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if !app.requireObjectAccess(w, r, usersElement, authz.ActionDelete, target.ID) {
		return
	}

	if err := app.store.Users.Deactivate(r.Context(), target.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "user deactivated"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
