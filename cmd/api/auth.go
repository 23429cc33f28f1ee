package main

import (
	"errors"
	"fmt"
	"net/http"

	"shopgate/internal/mailer"
	"shopgate/internal/store"
)

type RegisterUserPayload struct {
	FullName       string `json:"full_name" validate:"required,max=255"`
	Email          string `json:"email" validate:"required,email,max=255"`
	Password       string `json:"password" validate:"required,min=3,max=72"`
	PasswordRepeat string `json:"password_repeat" validate:"required"`
}

// defaultRole is assigned to every self-registered account.
const defaultRole = "User"

// registerUserHandler godoc
//
//	@Summary		Register a new account
//	@Description	Creates a user with the default role and returns an access token.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		RegisterUserPayload	true	"Registration payload"
//	@Success		201		{object}	map[string]any		"Token and user id"
//	@Failure		400		{object}	error				"Bad request"
//	@Failure		500		{object}	error				"Internal Server Error"
//	@Router			/auth/register [post]
func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.Password != payload.PasswordRepeat {
		app.badRequestResponse(w, r, fmt.Errorf("passwords do not match"))
		return
	}

	ctx := r.Context()

	role, err := app.store.Rules.GetRoleByName(ctx, defaultRole)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	user := &store.User{
		FullName: payload.FullName,
		Email:    payload.Email,
		RoleID:   role.ID,
		Role:     role.Name,
	}
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	token, err := app.authenticator.GenerateToken(user.ID, user.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// Welcome mail is best effort; registration already succeeded.
	vars := struct{ Username string }{Username: user.FullName}
	if _, err := app.mailer.Send(mailer.UserWelcomeTemplate, user.FullName, user.Email, vars); err != nil {
		app.logger.Errorw("error sending welcome email", "error", err)
	}

	response := map[string]any{
		"token":   token,
		"user_id": user.ID,
	}

	if err := app.jsonResponse(w, http.StatusCreated, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=3,max=72"`
}

// loginHandler godoc
//
//	@Summary		Login to get a token
//	@Description	Verifies credentials and issues a signed access token.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		LoginPayload		true	"User credentials"
//	@Success		200		{object}	map[string]string	"Access token"
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		500		{object}	error
//	@Router			/auth/login [post]
func (app *application) loginHandler(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// Unknown email, wrong password and deactivated account all yield the
	// same response; the caller must not learn which one it was.
	user, err := app.store.Users.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid credentials"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if !user.IsActive {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid credentials"))
		return
	}

	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid credentials"))
		return
	}

	token, err := app.authenticator.GenerateToken(user.ID, user.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"token": token}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// logoutHandler godoc
//
//	@Summary		Logout
//	@Description	Revokes the presented token. Revoking an already revoked token succeeds silently.
//	@Tags			authentication
//	@Produce		json
//	@Success		200	{object}	map[string]string	"Confirmation"
//	@Failure		401	{object}	error
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/auth/logout [post]
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	token := getTokenFromContext(r)

	if err := app.revocations.Revoke(r.Context(), token); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "logout successful, token revoked"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateProfilePayload struct {
	FullName       *string `json:"full_name" validate:"omitempty,max=255"`
	Password       *string `json:"password" validate:"omitempty,min=3,max=72"`
	PasswordRepeat *string `json:"password_repeat"`
}

// updateProfileHandler godoc
//
//	@Summary		Update own profile
//	@Description	Updates the display name and/or password of the authenticated user.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		UpdateProfilePayload	true	"Profile changes"
//	@Success		200		{object}	map[string]string		"Confirmation"
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/auth/profile [put]
func (app *application) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload UpdateProfilePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var passwordHash []byte
	if payload.Password != nil {
		if payload.PasswordRepeat == nil || *payload.Password != *payload.PasswordRepeat {
			app.badRequestResponse(w, r, fmt.Errorf("passwords do not match"))
			return
		}

		var pw store.User
		if err := pw.Password.Set(*payload.Password); err != nil {
			app.internalServerError(w, r, err)
			return
		}
		passwordHash = pw.Password.Hash()
	}

	if payload.FullName == nil && passwordHash == nil {
		app.badRequestResponse(w, r, fmt.Errorf("nothing to update"))
		return
	}

	if err := app.store.Users.UpdateProfile(r.Context(), user.ID, payload.FullName, passwordHash); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "profile updated successfully"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// softDeleteUserHandler godoc
//
//	@Summary		Soft delete own account
//	@Description	Deactivates the account. Every outstanding token stops authenticating immediately.
//	@Tags			authentication
//	@Produce		json
//	@Success		200	{object}	map[string]string	"Confirmation"
//	@Failure		401	{object}	error
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/auth/delete [delete]
func (app *application) softDeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.store.Users.Deactivate(r.Context(), user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "account deleted (soft) successfully"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
