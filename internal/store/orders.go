package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              int64     `json:"id"`
	ProductID       int64     `json:"product_id"`
	UserID          int64     `json:"user_id"`
	Quantity        int32     `json:"quantity"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Status          string    `json:"status"`
	OwnerID         int64     `json:"owner_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type OrdersStore struct {
	db *pgxpool.Pool
}

// Create inserts the order in one statement: when no total is given it is
// priced from the product row, and the owner defaults to the ordering user,
// so pricing and ownership are atomic with the insert.
func (s *OrdersStore) Create(ctx context.Context, order *Order) error {
	query := `
	  INSERT INTO orders (product_id, user_id, quantity, total_price_cents, status, owner_id)
	  SELECT p.id, $2, $3,
	         COALESCE(NULLIF($4::bigint, 0), p.price_cents * $3),
	         $5,
	         COALESCE(NULLIF($6::bigint, 0), $2)
	  FROM products p
	  WHERE p.id = $1
	  RETURNING id, total_price_cents, owner_id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if order.Status == "" {
		order.Status = OrderStatusPending
	}

	err := s.db.QueryRow(ctx, query,
		order.ProductID, order.UserID, order.Quantity, order.TotalPriceCents, order.Status, order.OwnerID,
	).Scan(&order.ID, &order.TotalPriceCents, &order.OwnerID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// product does not exist
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *OrdersStore) GetByID(ctx context.Context, id int64) (*Order, error) {
	query := `
	  SELECT id, product_id, user_id, quantity, total_price_cents, status, owner_id, created_at, updated_at
	  FROM orders WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var order Order
	err := s.db.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.ProductID,
		&order.UserID,
		&order.Quantity,
		&order.TotalPriceCents,
		&order.Status,
		&order.OwnerID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrdersStore) List(ctx context.Context, ownerID int64) ([]Order, error) {
	query := `
	  SELECT id, product_id, user_id, quantity, total_price_cents, status, owner_id, created_at, updated_at
	  FROM orders
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

	var orders []Order
	for rows.Next() {
		var order Order
		if err := rows.Scan(
			&order.ID,
			&order.ProductID,
			&order.UserID,
			&order.Quantity,
			&order.TotalPriceCents,
			&order.Status,
			&order.OwnerID,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (s *OrdersStore) Update(ctx context.Context, order *Order) error {
	query := `
	  UPDATE orders
	  SET quantity = $2, total_price_cents = $3, status = $4, updated_at = now()
	  WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, order.ID, order.Quantity, order.TotalPriceCents, order.Status)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *OrdersStore) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM orders WHERE id = $1`

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
