package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopgate/internal/authz"
)

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type BusinessElement struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AccessRule is one row of the permission matrix, unique per
// (role, element) pair.
type AccessRule struct {
	ID        int64  `json:"id"`
	RoleID    int64  `json:"role_id"`
	ElementID int64  `json:"element_id"`
	Role      string `json:"role,omitempty"`
	Element   string `json:"element,omitempty"`
	authz.Rule
}

type RulesStore struct {
	db *pgxpool.Pool
}

func (s *RulesStore) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	query := `SELECT id, name FROM roles WHERE name = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var role Role
	if err := s.db.QueryRow(ctx, query, name).Scan(&role.ID, &role.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// GetRule reads the current matrix cell for the pair straight from the
// database on every call; an administrator's change is in effect for the
// next authorization decision with no invalidation step.
func (s *RulesStore) GetRule(ctx context.Context, roleName, elementName string) (*AccessRule, error) {
	query := `
	  SELECT ar.id, ar.role_id, ar.element_id, r.name, be.name,
	         ar.read_permission, ar.read_all_permission, ar.create_permission,
	         ar.update_permission, ar.update_all_permission,
	         ar.delete_permission, ar.delete_all_permission
	  FROM access_rules ar
	  JOIN roles r ON r.id = ar.role_id
	  JOIN business_elements be ON be.id = ar.element_id
	  WHERE r.name = $1 AND be.name = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var rule AccessRule
	err := s.db.QueryRow(ctx, query, roleName, elementName).Scan(
		&rule.ID,
		&rule.RoleID,
		&rule.ElementID,
		&rule.Role,
		&rule.Element,
		&rule.Read,
		&rule.ReadAll,
		&rule.Create,
		&rule.Update,
		&rule.UpdateAll,
		&rule.Delete,
		&rule.DeleteAll,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &rule, nil
}

func (s *RulesStore) GetRuleByID(ctx context.Context, id int64) (*AccessRule, error) {
	query := `
	  SELECT ar.id, ar.role_id, ar.element_id, r.name, be.name,
	         ar.read_permission, ar.read_all_permission, ar.create_permission,
	         ar.update_permission, ar.update_all_permission,
	         ar.delete_permission, ar.delete_all_permission
	  FROM access_rules ar
	  JOIN roles r ON r.id = ar.role_id
	  JOIN business_elements be ON be.id = ar.element_id
	  WHERE ar.id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var rule AccessRule
	err := s.db.QueryRow(ctx, query, id).Scan(
		&rule.ID,
		&rule.RoleID,
		&rule.ElementID,
		&rule.Role,
		&rule.Element,
		&rule.Read,
		&rule.ReadAll,
		&rule.Create,
		&rule.Update,
		&rule.UpdateAll,
		&rule.Delete,
		&rule.DeleteAll,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &rule, nil
}

func (s *RulesStore) List(ctx context.Context) ([]AccessRule, error) {
	query := `
	  SELECT ar.id, ar.role_id, ar.element_id, r.name, be.name,
	         ar.read_permission, ar.read_all_permission, ar.create_permission,
	         ar.update_permission, ar.update_all_permission,
	         ar.delete_permission, ar.delete_all_permission
	  FROM access_rules ar
	  JOIN roles r ON r.id = ar.role_id
	  JOIN business_elements be ON be.id = ar.element_id
	  ORDER BY r.name, be.name
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []AccessRule
	for rows.Next() {
		var rule AccessRule
		if err := rows.Scan(
			&rule.ID,
			&rule.RoleID,
			&rule.ElementID,
			&rule.Role,
			&rule.Element,
			&rule.Read,
			&rule.ReadAll,
			&rule.Create,
			&rule.Update,
			&rule.UpdateAll,
			&rule.Delete,
			&rule.DeleteAll,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (s *RulesStore) Create(ctx context.Context, rule *AccessRule) error {
	query := `
	  INSERT INTO access_rules (role_id, element_id,
	    read_permission, read_all_permission, create_permission,
	    update_permission, update_all_permission,
	    delete_permission, delete_all_permission)
	  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	  RETURNING id
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		rule.RoleID, rule.ElementID,
		rule.Read, rule.ReadAll, rule.Create,
		rule.Update, rule.UpdateAll,
		rule.Delete, rule.DeleteAll,
	).Scan(&rule.ID)
	if err != nil {
		if strings.Contains(err.Error(), `"access_rules_role_id_element_id_key"`) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *RulesStore) Update(ctx context.Context, rule *AccessRule) error {
	query := `
	  UPDATE access_rules
	  SET read_permission = $2, read_all_permission = $3, create_permission = $4,
	      update_permission = $5, update_all_permission = $6,
	      delete_permission = $7, delete_all_permission = $8
	  WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query,
		rule.ID,
		rule.Read, rule.ReadAll, rule.Create,
		rule.Update, rule.UpdateAll,
		rule.Delete, rule.DeleteAll,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RulesStore) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM access_rules WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
