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

const accessRulesElement = "Access Rules"

// requireAccessRulesGate guards every access-rules endpoint: Admin always
// passes, other roles need a rule granting read or read_all on the
// "Access Rules" element itself.
func (app *application) requireAccessRulesGate(w http.ResponseWriter, r *http.Request) bool {
	user := getUserFromContext(r)

	if user.Role == authz.SuperRole {
		return true
	}

	rule, err := store.RuleOrNil(r.Context(), app.store, user.Role, accessRulesElement)
	if err != nil {
		app.internalServerError(w, r, err)
		return false
	}
	if rule == nil || !(rule.Read || rule.ReadAll) {
		app.forbiddenResponse(w, r, authz.ErrForbidden)
		return false
	}
	return true
}

// listAccessRulesHandler godoc
//
//	@Summary		List access rules
//	@Tags			access-rules
//	@Produce		json
//	@Success		200	{array}		store.AccessRule
//	@Failure		401	{object}	error
//	@Failure		403	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/access-rules [get]
func (app *application) listAccessRulesHandler(w http.ResponseWriter, r *http.Request) {
	if !app.requireAccessRulesGate(w, r) {
		return
	}

	rules, err := app.store.Rules.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, rules); err != nil {
		app.internalServerError(w, r, err)
	}
}

type AccessRulePayload struct {
	RoleID    int64 `json:"role_id" validate:"required,gt=0"`
	ElementID int64 `json:"element_id" validate:"required,gt=0"`
	Read      bool  `json:"read"`
	ReadAll   bool  `json:"read_all"`
	Create    bool  `json:"create"`
	Update    bool  `json:"update"`
	UpdateAll bool  `json:"update_all"`
	Delete    bool  `json:"delete"`
	DeleteAll bool  `json:"delete_all"`
}

// createAccessRuleHandler godoc
//
//	@Summary		Create an access rule
//	@Description	Adds a permission matrix cell for a (role, element) pair.
//	@Tags			access-rules
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		AccessRulePayload	true	"Rule"
//	@Success		201		{object}	store.AccessRule
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/access-rules [post]
func (app *application) createAccessRuleHandler(w http.ResponseWriter, r *http.Request) {
	if !app.requireAccessRulesGate(w, r) {
		return
	}

	var payload AccessRulePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	rule := &store.AccessRule{
		RoleID:    payload.RoleID,
		ElementID: payload.ElementID,
		Rule: authz.Rule{
			Read:      payload.Read,
			ReadAll:   payload.ReadAll,
			Create:    payload.Create,
			Update:    payload.Update,
			UpdateAll: payload.UpdateAll,
			Delete:    payload.Delete,
			DeleteAll: payload.DeleteAll,
		},
	}

	if err := app.store.Rules.Create(r.Context(), rule); err != nil {
		if errors.Is(err, store.ErrConflict) {
			app.badRequestResponse(w, r, fmt.Errorf("a rule for that role and element already exists"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, rule); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getAccessRuleHandler godoc
//
//	@Summary		Retrieve an access rule
//	@Tags			access-rules
//	@Produce		json
//	@Param			ruleID	path		int	true	"Rule ID"
//	@Success		200		{object}	store.AccessRule
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/access-rules/{ruleID} [get]
func (app *application) getAccessRuleHandler(w http.ResponseWriter, r *http.Request) {
	if !app.requireAccessRulesGate(w, r) {
		return
	}

	rule, ok := app.accessRuleFromURL(w, r)
	if !ok {
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, rule); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateAccessRuleHandler godoc
//
//	@Summary		Update an access rule
//	@Description	Rewrites the seven grant flags; the change applies to the next authorization decision.
//	@Tags			access-rules
//	@Accept			json
//	@Produce		json
//	@Param			ruleID	path		int					true	"Rule ID"
//	@Param			payload	body		AccessRulePayload	true	"Flags"
//	@Success		200		{object}	store.AccessRule
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/access-rules/{ruleID} [put]
func (app *application) updateAccessRuleHandler(w http.ResponseWriter, r *http.Request) {
	if !app.requireAccessRulesGate(w, r) {
		return
	}

	rule, ok := app.accessRuleFromURL(w, r)
	if !ok {
		return
	}

	var payload struct {
		Read      *bool `json:"read"`
		ReadAll   *bool `json:"read_all"`
		Create    *bool `json:"create"`
		Update    *bool `json:"update"`
		UpdateAll *bool `json:"update_all"`
		Delete    *bool `json:"delete"`
		DeleteAll *bool `json:"delete_all"`
	}
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.Read != nil {
		rule.Read = *payload.Read
	}
	if payload.ReadAll != nil {
		rule.ReadAll = *payload.ReadAll
	}
	if payload.Create != nil {
		rule.Create = *payload.Create
	}
	if payload.Update != nil {
		rule.Update = *payload.Update
	}
	if payload.UpdateAll != nil {
		rule.UpdateAll = *payload.UpdateAll
	}
	if payload.Delete != nil {
		rule.Delete = *payload.Delete
	}
	if payload.DeleteAll != nil {
		rule.DeleteAll = *payload.DeleteAll
	}

	if err := app.store.Rules.Update(r.Context(), rule); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, rule); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteAccessRuleHandler godoc
//
//	@Summary		Delete an access rule
//	@Description	Removes the matrix cell; the role falls back to deny-by-default for that element.
//	@Tags			access-rules
//	@Produce		json
//	@Param			ruleID	path		int					true	"Rule ID"
//	@Success		200		{object}	map[string]string	"Confirmation"
//	@Failure		401		{object}	error
//	@Failure		403		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/access-rules/{ruleID} [delete]
func (app *application) deleteAccessRuleHandler(w http.ResponseWriter, r *http.Request) {
	if !app.requireAccessRulesGate(w, r) {
		return
	}

	rule, ok := app.accessRuleFromURL(w, r)
	if !ok {
		return
	}

	if err := app.store.Rules.Delete(r.Context(), rule.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"message": "access rule deleted"}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) accessRuleFromURL(w http.ResponseWriter, r *http.Request) (*store.AccessRule, bool) {
	ruleID, err := strconv.ParseInt(chi.URLParam(r, "ruleID"), 10, 64)
	if err != nil || ruleID <= 0 {
		app.badRequestResponse(w, r, fmt.Errorf("invalid ruleID"))
		return nil, false
	}

	rule, err := app.store.Rules.GetRuleByID(r.Context(), ruleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return nil, false
		}
		app.internalServerError(w, r, err)
		return nil, false
	}
	return rule, true
}
