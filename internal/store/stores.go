package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a storefront that products belong to.
type Store struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	IsActive bool   `json:"is_active"`
	OwnerID  int64  `json:"owner_id"`
}

type StoresStore struct {
	db *pgxpool.Pool
}

func (s *StoresStore) Create(ctx context.Context, store *Store) error {
	query := `
	  INSERT INTO stores (name, address, owner_id)
	  VALUES ($1, $2, $3)
	  RETURNING id, is_active
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query, store.Name, store.Address, store.OwnerID).
		Scan(&store.ID, &store.IsActive)
	if err != nil {
		if strings.Contains(err.Error(), `"stores_name_key"`) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *StoresStore) GetByID(ctx context.Context, id int64) (*Store, error) {
	query := `SELECT id, name, address, is_active, owner_id FROM stores WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var store Store
	err := s.db.QueryRow(ctx, query, id).Scan(
		&store.ID, &store.Name, &store.Address, &store.IsActive, &store.OwnerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &store, nil
}

func (s *StoresStore) List(ctx context.Context, ownerID int64) ([]Store, error) {
	query := `
	  SELECT id, name, address, is_active, owner_id
	  FROM stores
	  WHERE ($1 = 0 OR owner_id = $1)
	  ORDER BY id
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []Store
	for rows.Next() {
		var store Store
		if err := rows.Scan(&store.ID, &store.Name, &store.Address, &store.IsActive, &store.OwnerID); err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	return stores, rows.Err()
}

func (s *StoresStore) Update(ctx context.Context, store *Store) error {
	query := `
	  UPDATE stores
	  SET name = $2, address = $3, is_active = $4
	  WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, store.ID, store.Name, store.Address, store.IsActive)
	if err != nil {
		if strings.Contains(err.Error(), `"stores_name_key"`) {
			return ErrConflict
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *StoresStore) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM stores WHERE id = $1`

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
