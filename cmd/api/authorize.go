package main

import (
	"net/http"

	"shopgate/internal/authz"
	"shopgate/internal/store"
)

// requireCollectionAccess runs the coarse permission gate for an action that
// does not address a specific object yet. It writes the error response on
// deny and reports whether the handler may proceed.
func (app *application) requireCollectionAccess(w http.ResponseWriter, r *http.Request, element string, action authz.Action) bool {
	user := getUserFromContext(r)

	rule, err := store.RuleOrNil(r.Context(), app.store, user.Role, element)
	if err != nil {
		app.internalServerError(w, r, err)
		return false
	}

	if err := authz.CanAccessCollection(user.Role, rule, action); err != nil {
		app.forbiddenResponse(w, r, err)
		return false
	}
	return true
}

// requireObjectAccess runs the object-level check once the target's owner is
// known.
func (app *application) requireObjectAccess(w http.ResponseWriter, r *http.Request, element string, action authz.Action, ownerID int64) bool {
	user := getUserFromContext(r)

	rule, err := store.RuleOrNil(r.Context(), app.store, user.Role, element)
	if err != nil {
		app.internalServerError(w, r, err)
		return false
	}

	if err := authz.CanAccessObject(user.Role, rule, action, ownerID, user.ID); err != nil {
		app.forbiddenResponse(w, r, err)
		return false
	}
	return true
}

// listScope gates a list operation and resolves its row filter: a caller
// holding read without read_all passes the gate but only sees owned rows.
// ok reports whether the handler may proceed; ownerID is zero for an
// unrestricted listing.
func (app *application) listScope(w http.ResponseWriter, r *http.Request, element string) (ownerID int64, ok bool) {
	user := getUserFromContext(r)

	rule, err := store.RuleOrNil(r.Context(), app.store, user.Role, element)
	if err != nil {
		app.internalServerError(w, r, err)
		return 0, false
	}

	if err := authz.CanAccessCollection(user.Role, rule, authz.ActionList); err != nil {
		app.forbiddenResponse(w, r, err)
		return 0, false
	}

	if authz.OwnedOnly(user.Role, rule) {
		return user.ID, true
	}
	return 0, true
}
