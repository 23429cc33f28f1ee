package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"shopgate/internal/authz"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	ErrDuplicateEmail    = errors.New("a user with that email already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		Create(context.Context, *User) error
		GetByID(context.Context, int64) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		List(ctx context.Context, ownerID int64) ([]User, error)
		UpdateProfile(ctx context.Context, userID int64, fullName *string, passwordHash []byte) error
		Deactivate(ctx context.Context, userID int64) error
	}
	Rules interface {
		GetRoleByName(ctx context.Context, name string) (*Role, error)
		GetRule(ctx context.Context, roleName, elementName string) (*AccessRule, error)
		GetRuleByID(ctx context.Context, id int64) (*AccessRule, error)
		List(ctx context.Context) ([]AccessRule, error)
		Create(ctx context.Context, rule *AccessRule) error
		Update(ctx context.Context, rule *AccessRule) error
		Delete(ctx context.Context, id int64) error
	}
	Products interface {
		Create(context.Context, *Product) error
		GetByID(context.Context, int64) (*Product, error)
		List(ctx context.Context, ownerID int64) ([]Product, error)
		Update(context.Context, *Product) error
		Delete(ctx context.Context, id int64) error
	}
	Stores interface {
		Create(context.Context, *Store) error
		GetByID(context.Context, int64) (*Store, error)
		List(ctx context.Context, ownerID int64) ([]Store, error)
		Update(context.Context, *Store) error
		Delete(ctx context.Context, id int64) error
	}
	Orders interface {
		Create(context.Context, *Order) error
		GetByID(context.Context, int64) (*Order, error)
		List(ctx context.Context, ownerID int64) ([]Order, error)
		Update(context.Context, *Order) error
		Delete(ctx context.Context, id int64) error
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:    &UsersStore{db},
		Rules:    &RulesStore{db},
		Products: &ProductsStore{db},
		Stores:   &StoresStore{db},
		Orders:   &OrdersStore{db},
	}
}

// RuleOrNil adapts a rule lookup for the decision engine, which treats a
// missing rule as a deny rather than an error.
func RuleOrNil(ctx context.Context, s Storage, roleName, elementName string) (*authz.Rule, error) {
	rule, err := s.Rules.GetRule(ctx, roleName, elementName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule.Rule, nil
}
