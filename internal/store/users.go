package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Password  password  `json:"-"`
	RoleID    int64     `json:"-"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// password keeps the plaintext out of reach once hashed.
type password struct {
	text *string `json:"-"`
	hash []byte  `json:"-"`
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

// Compare is a constant-time check against the stored hash.
func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

func (p *password) Hash() []byte {
	return p.hash
}

type UsersStore struct {
	db *pgxpool.Pool
}

func (s *UsersStore) Create(ctx context.Context, user *User) error {
	query := `
	  INSERT INTO users (full_name, email, password, role_id)
	  VALUES ($1, $2, $3, $4)
	  RETURNING id, is_active, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(
		ctx, query, user.FullName, user.Email, user.Password.hash, user.RoleID,
	).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), `"users_email_key"`) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *UsersStore) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `
	  SELECT u.id, u.full_name, u.email, u.password, u.role_id, r.name, u.is_active, u.created_at, u.updated_at
	  FROM users u
	  JOIN roles r ON r.id = u.role_id
	  WHERE u.id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var user User
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.Password.hash,
		&user.RoleID,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

func (s *UsersStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
	  SELECT u.id, u.full_name, u.email, u.password, u.role_id, r.name, u.is_active, u.created_at, u.updated_at
	  FROM users u
	  JOIN roles r ON r.id = u.role_id
	  WHERE u.email = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var user User
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.Password.hash,
		&user.RoleID,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}

// List returns user accounts. When ownerID is non-zero the result is
// narrowed to that user's own row; for the Users element "owned" means the
// row itself.
func (s *UsersStore) List(ctx context.Context, ownerID int64) ([]User, error) {
	query := `
	  SELECT u.id, u.full_name, u.email, u.role_id, r.name, u.is_active, u.created_at, u.updated_at
	  FROM users u
	  JOIN roles r ON r.id = u.role_id
	  WHERE ($1 = 0 OR u.id = $1)
	  ORDER BY u.id
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(
			&user.ID,
			&user.FullName,
			&user.Email,
			&user.RoleID,
			&user.Role,
			&user.IsActive,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile updates the display name and/or password hash; nil means
// leave the column as is.
func (s *UsersStore) UpdateProfile(ctx context.Context, userID int64, fullName *string, passwordHash []byte) error {
	query := `
	  UPDATE users
	  SET full_name = COALESCE($2, full_name),
	      password = COALESCE($3, password),
	      updated_at = now()
	  WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, userID, fullName, passwordHash)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate flips is_active off. Outstanding tokens for the user keep
// verifying but fail the active check on their next request.
func (s *UsersStore) Deactivate(ctx context.Context, userID int64) error {
	query := `UPDATE users SET is_active = false, updated_at = now() WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
