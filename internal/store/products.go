package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	StoreID     int64     `json:"store_id"`
	IsActive    bool      `json:"is_active"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProductsStore struct {
	db *pgxpool.Pool
}

// Create inserts the product with its owner in the same statement, so a row
// is never visible unowned.
func (s *ProductsStore) Create(ctx context.Context, product *Product) error {
	query := `
	  INSERT INTO products (name, description, price_cents, store_id, owner_id)
	  VALUES ($1, $2, $3, $4, $5)
	  RETURNING id, is_active, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		product.Name, product.Description, product.PriceCents, product.StoreID, product.OwnerID,
	).Scan(&product.ID, &product.IsActive, &product.CreatedAt, &product.UpdatedAt)
	return err
}

func (s *ProductsStore) GetByID(ctx context.Context, id int64) (*Product, error) {
	query := `
	  SELECT id, name, description, price_cents, store_id, is_active, owner_id, created_at, updated_at
	  FROM products WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var product Product
	err := s.db.QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.PriceCents,
		&product.StoreID,
		&product.IsActive,
		&product.OwnerID,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// List returns products, newest first. ownerID zero means no owner filter.
func (s *ProductsStore) List(ctx context.Context, ownerID int64) ([]Product, error) {
	query := `
	  SELECT id, name, description, price_cents, store_id, is_active, owner_id, created_at, updated_at
	  FROM products
	  WHERE ($1 = 0 OR owner_id = $1)
	  ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var product Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.PriceCents,
			&product.StoreID,
			&product.IsActive,
			&product.OwnerID,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// Update rewrites the mutable columns. The owner column is stamped at
// creation and never touched here.
func (s *ProductsStore) Update(ctx context.Context, product *Product) error {
	query := `
	  UPDATE products
	  SET name = $2, description = $3, price_cents = $4, store_id = $5, is_active = $6, updated_at = now()
	  WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query,
		product.ID, product.Name, product.Description, product.PriceCents, product.StoreID, product.IsActive,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProductsStore) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1`

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
