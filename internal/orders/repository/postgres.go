package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalog-fulfillment/internal/orders"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save writes the order header and all of its items in one transaction.
func (r *PostgresRepository) Save(ctx context.Context, o orders.Order) (orders.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return orders.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (order_id, customer_name, email, status, total_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_date
	`

	var pk int64
	if err := tx.QueryRowContext(ctx, orderQuery,
		o.OrderID, o.CustomerName, o.Email, o.Status, o.Total,
	).Scan(&pk, &o.OrderDate); err != nil {
		return orders.Order{}, fmt.Errorf("insert order %s: %w", o.OrderID, err)
	}
	o.OrderDate = o.OrderDate.UTC()

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, product_name, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, item := range o.Items {
		if _, err := tx.ExecContext(ctx, itemQuery,
			pk, i, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice,
		); err != nil {
			return orders.Order{}, fmt.Errorf("insert order item %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return orders.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	return o, nil
}

func (r *PostgresRepository) FindByOrderID(ctx context.Context, orderID string) (orders.Order, error) {
	query := `
		SELECT id, order_id, customer_name, email, status, total_amount, order_date
		FROM orders
		WHERE order_id = $1
	`

	var (
		pk int64
		o  orders.Order
	)
	err := r.db.QueryRowContext(ctx, query, orderID).
		Scan(&pk, &o.OrderID, &o.CustomerName, &o.Email, &o.Status, &o.Total, &o.OrderDate)
	if errors.Is(err, sql.ErrNoRows) {
		return orders.Order{}, orders.ErrNotFound
	}
	if err != nil {
		return orders.Order{}, fmt.Errorf("select order %s: %w", orderID, err)
	}
	o.OrderDate = o.OrderDate.UTC()

	items, err := r.items(ctx, pk)
	if err != nil {
		return orders.Order{}, err
	}
	o.Items = items

	return o, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]orders.Order, error) {
	query := `
		SELECT id, order_id, customer_name, email, status, total_amount, order_date
		FROM orders
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var pks []int64
	list := make([]orders.Order, 0)
	for rows.Next() {
		var (
			pk int64
			o  orders.Order
		)
		if err := rows.Scan(&pk, &o.OrderID, &o.CustomerName, &o.Email, &o.Status, &o.Total, &o.OrderDate); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.OrderDate = o.OrderDate.UTC()
		pks = append(pks, pk)
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	rows.Close()

	for i, pk := range pks {
		items, err := r.items(ctx, pk)
		if err != nil {
			return nil, err
		}
		list[i].Items = items
	}

	return list, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) items(ctx context.Context, pk int64) ([]orders.Item, error) {
	query := `
		SELECT product_id, product_name, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, pk)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make([]orders.Item, 0)
	for rows.Next() {
		var item orders.Item
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}
