// Package authz implements the role/element/action permission decision.
//
// Every protected handler asks two questions: may this role attempt the
// operation at all (collection check), and once a concrete object is
// addressed, may it touch that object (object check, which weighs
// ownership against the "_all" scope flags).
package authz

import "errors"

// SuperRole bypasses rule lookup entirely. The shortcut is deliberate: an
// Admin with no access_rules rows must still have full access, so it is an
// explicit branch here rather than a row in the rule table.
const SuperRole = "Admin"

var (
	// ErrNoRule means no access rule exists for the role/element pair.
	ErrNoRule = errors.New("no access rule for this role and element")
	// ErrForbidden means a rule exists but does not grant the action, either
	// because the flag is unset or because the caller does not own the object.
	ErrForbidden = errors.New("not owner or insufficient permission scope")
)

type Action int

const (
	ActionList Action = iota
	ActionRetrieve
	ActionCreate
	ActionUpdate
	ActionPartialUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionList:
		return "list"
	case ActionRetrieve:
		return "retrieve"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionPartialUpdate:
		return "partial_update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// Rule is one cell of the permission matrix: the seven grant flags for a
// (role, element) pair. The plain flags mean "only objects the caller owns";
// the _all flags mean unrestricted scope. A rule may set an _all flag
// without its plain counterpart, so both are always consulted.
type Rule struct {
	Read      bool `json:"read"`
	ReadAll   bool `json:"read_all"`
	Create    bool `json:"create"`
	Update    bool `json:"update"`
	UpdateAll bool `json:"update_all"`
	Delete    bool `json:"delete"`
	DeleteAll bool `json:"delete_all"`
}

// flags maps an action to its (scoped, all) grant pair. Create has no scope
// variant: ownership does not exist until the object does, and the creator
// is stamped as owner in the same insert.
func (r *Rule) flags(action Action) (scoped, all bool) {
	switch action {
	case ActionList, ActionRetrieve:
		return r.Read, r.ReadAll
	case ActionCreate:
		return r.Create, false
	case ActionUpdate, ActionPartialUpdate:
		return r.Update, r.UpdateAll
	case ActionDelete:
		return r.Delete, r.DeleteAll
	}
	return false, false
}

// CanAccessCollection decides whether the role may attempt the action before
// any object is known. Holding only the scoped flag passes: for reads the
// store layer then narrows the result set to owned rows, and for create the
// new object is owned by the caller by construction. rule may be nil when no
// row exists for the pair.
func CanAccessCollection(role string, rule *Rule, action Action) error {
	if role == SuperRole {
		return nil
	}
	if rule == nil {
		return ErrNoRule
	}
	scoped, all := rule.flags(action)
	if scoped || all {
		return nil
	}
	return ErrForbidden
}

// CanAccessObject decides whether the role may perform the action on one
// specific object. The _all flag grants unconditionally; the scoped flag
// grants only when the caller owns the object.
func CanAccessObject(role string, rule *Rule, action Action, ownerID, userID int64) error {
	if role == SuperRole {
		return nil
	}
	if rule == nil {
		return ErrNoRule
	}
	scoped, all := rule.flags(action)
	if all {
		return nil
	}
	if scoped && ownerID == userID {
		return nil
	}
	return ErrForbidden
}

// OwnedOnly reports whether list results must be narrowed to rows owned by
// the caller: the rule grants read but not read_all. The data-access layer
// honors this by filtering on owner.
func OwnedOnly(role string, rule *Rule) bool {
	if role == SuperRole {
		return false
	}
	return rule != nil && rule.Read && !rule.ReadAll
}
