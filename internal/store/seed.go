package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"shopgate/internal/authz"
)

// DefaultRoles and DefaultElements must exist before the first request is
// served; EnsureDefaultData is called once at startup and is idempotent.
var DefaultRoles = []string{"Admin", "Moderator", "User", "Guest"}

var DefaultElements = []string{"Users", "Products", "Stores", "Orders", "Access Rules"}

// DefaultMatrix is the permission matrix applied to every element for each
// seeded role. Admin rows are written too, even though the decision engine
// never reads them for the super-role.
var DefaultMatrix = map[string]authz.Rule{
	"Admin": {
		Read: true, ReadAll: true, Create: true,
		Update: true, UpdateAll: true, Delete: true, DeleteAll: true,
	},
	"Moderator": {
		Read: true, ReadAll: true, Create: true, Update: true,
	},
	"User": {
		Read: true, Create: true, Update: true,
	},
	"Guest": {
		Read: true,
	},
}

// EnsureDefaultData seeds roles, business elements and the default
// permission matrix. Existing rows are left untouched, so administrator
// edits survive restarts.
func EnsureDefaultData(ctx context.Context, db *pgxpool.Pool) error {
	for _, name := range DefaultRoles {
		if _, err := db.Exec(ctx,
			`INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("seed role %q: %w", name, err)
		}
	}

	for _, name := range DefaultElements {
		if _, err := db.Exec(ctx,
			`INSERT INTO business_elements (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("seed element %q: %w", name, err)
		}
	}

	for role, rule := range DefaultMatrix {
		for _, element := range DefaultElements {
			_, err := db.Exec(ctx, `
			  INSERT INTO access_rules (role_id, element_id,
			    read_permission, read_all_permission, create_permission,
			    update_permission, update_all_permission,
			    delete_permission, delete_all_permission)
			  SELECT r.id, be.id, $3, $4, $5, $6, $7, $8, $9
			  FROM roles r, business_elements be
			  WHERE r.name = $1 AND be.name = $2
			  ON CONFLICT (role_id, element_id) DO NOTHING
			`, role, element,
				rule.Read, rule.ReadAll, rule.Create,
				rule.Update, rule.UpdateAll,
				rule.Delete, rule.DeleteAll,
			)
			if err != nil {
				return fmt.Errorf("seed rule %s/%s: %w", role, element, err)
			}
		}
	}

	return nil
}
