package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cookieshop/backend/internal/domain/order"
)

const (
	orderColumns = `id, customer, items, total, status, created_at`

	// Conditional decrement: the WHERE clause is what keeps stock from ever
	// going negative under concurrent placements.
	deductStockSQL = `UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`

	getStockSQL = `SELECT stock FROM products WHERE id = $1`

	createOrderSQL = `INSERT INTO orders (id, customer, items, total, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1 RETURNING ` + orderColumns
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create commits the order and every line item's stock deduction in a single
// transaction. Items are processed in list order; the first failing item
// aborts and rolls back all earlier deductions, so a rejected order never
// leaves the catalog short.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	customerJSON, err := json.Marshal(o.Customer)
	if err != nil {
		return fmt.Errorf("marshaling order customer: %w", err)
	}
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, item := range o.Items {
		if err := deductStock(ctx, tx, item); err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, customerJSON, itemsJSON, o.Total, o.Status, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// deductStock decrements one product's stock inside tx, reporting typed
// errors that reference the submitted item name.
func deductStock(ctx context.Context, tx pgx.Tx, item order.Item) error {
	ct, err := tx.Exec(ctx, deductStockSQL, item.ProductID, item.Quantity)
	if err != nil {
		return fmt.Errorf("deducting stock of %q: %w", item.ProductID, err)
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	// Nothing matched: either the product is gone or it cannot cover the
	// requested quantity. Distinguish the two for the caller's message.
	var available int
	err = tx.QueryRow(ctx, getStockSQL, item.ProductID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &order.ProductNotFoundError{Name: item.Name}
		}
		return fmt.Errorf("checking stock of %q: %w", item.ProductID, err)
	}
	return &order.InsufficientStockError{Name: item.Name, Available: available}
}

// List returns all orders, most recent first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus sets the order's status and returns the updated record.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return nil, fmt.Errorf("updating status of order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("updating status of order %q: %w", id, err)
	}
	return &o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		customerRaw []byte
		itemsRaw    []byte
	)
	err := row.Scan(&o.ID, &customerRaw, &itemsRaw, &o.Total, &o.Status, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(customerRaw, &o.Customer); err != nil {
		return o, fmt.Errorf("decoding customer of order %q: %w", o.ID, err)
	}
	if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
		return o, fmt.Errorf("decoding items of order %q: %w", o.ID, err)
	}
	return o, nil
}
