package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresLedger keeps the counter in products.stock_quantity. Every change is
// one conditional UPDATE, so the row lock taken by Postgres is the only
// serialization point and unrelated products never contend.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Reserve(ctx context.Context, productID, quantity int64) error {
	if err := checkQuantity(productID, quantity); err != nil {
		return err
	}

	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $1
		WHERE id = $2 AND stock_quantity >= $1
	`

	result, err := l.db.ExecContext(ctx, query, quantity, productID)
	if err != nil {
		return fmt.Errorf("reserve product %d: %w", productID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	exists, err := l.exists(ctx, productID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("reserve product %d: %w", productID, ErrUnknownProduct)
	}
	return fmt.Errorf("reserve product %d: %w", productID, ErrInsufficientStock)
}

func (l *PostgresLedger) Release(ctx context.Context, productID, quantity int64) error {
	return l.increment(ctx, "release", productID, quantity)
}

// Restock adds newly received units. It is the only way stock grows outside
// of order rollback; product updates never write the counter.
func (l *PostgresLedger) Restock(ctx context.Context, productID, quantity int64) error {
	return l.increment(ctx, "restock", productID, quantity)
}

func (l *PostgresLedger) increment(ctx context.Context, op string, productID, quantity int64) error {
	if err := checkQuantity(productID, quantity); err != nil {
		return err
	}

	query := `UPDATE products SET stock_quantity = stock_quantity + $1 WHERE id = $2`

	result, err := l.db.ExecContext(ctx, query, quantity, productID)
	if err != nil {
		return fmt.Errorf("%s product %d: %w", op, productID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s product %d: %w", op, productID, ErrUnknownProduct)
	}
	return nil
}

func (l *PostgresLedger) Available(ctx context.Context, productID int64) (int64, error) {
	var qty int64
	err := l.db.QueryRowContext(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("product %d: %w", productID, ErrUnknownProduct)
	}
	if err != nil {
		return 0, fmt.Errorf("select stock %d: %w", productID, err)
	}
	return qty, nil
}

func (l *PostgresLedger) exists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product %d: %w", productID, err)
	}
	return exists, nil
}
