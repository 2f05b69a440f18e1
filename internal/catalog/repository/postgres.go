package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"catalog-fulfillment/internal/catalog"
)

const (
	healthCheckTimeout = 2 * time.Second

	productColumns = `id, name, description, brand, category, price, release_date,
		product_available, stock_quantity, image_name, image_type`
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (catalog.Product, error) {
	var (
		p           catalog.Product
		releaseDate sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Brand, &p.Category, &p.Price, &releaseDate,
		&p.ProductAvailable, &p.StockQuantity, &p.ImageName, &p.ImageType,
	)
	if err != nil {
		return catalog.Product{}, err
	}
	if releaseDate.Valid {
		p.ReleaseDate = releaseDate.Time.UTC()
	}
	return p, nil
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// Save inserts the product when it has no id yet and updates it in place
// otherwise. An update without image data keeps the stored image. Only an
// insert writes stock_quantity; afterwards the inventory ledger owns it.
func (r *PostgresRepository) Save(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if p.ID == 0 {
		return r.insert(ctx, p)
	}
	return r.update(ctx, p)
}

func (r *PostgresRepository) insert(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	query := `
		INSERT INTO products (name, description, brand, category, price, release_date,
			product_available, stock_quantity, image_name, image_type, image_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + productColumns

	saved, err := scanProduct(r.db.QueryRowContext(ctx, query,
		p.Name, p.Description, p.Brand, p.Category, p.Price, nullableDate(p.ReleaseDate),
		p.ProductAvailable, p.StockQuantity, p.ImageName, p.ImageType, nullableBytes(p.ImageData),
	))
	if err != nil {
		return catalog.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return saved, nil
}

func (r *PostgresRepository) update(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	query := `
		UPDATE products SET
			name = $2,
			description = $3,
			brand = $4,
			category = $5,
			price = $6,
			release_date = $7,
			product_available = $8,
			image_name = CASE WHEN $9::bytea IS NULL THEN image_name ELSE $10 END,
			image_type = CASE WHEN $9::bytea IS NULL THEN image_type ELSE $11 END,
			image_data = COALESCE($9::bytea, image_data),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	saved, err := scanProduct(r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, p.Brand, p.Category, p.Price, nullableDate(p.ReleaseDate),
		p.ProductAvailable, nullableBytes(p.ImageData), p.ImageName, p.ImageType,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("update product %d: %w", p.ID, err)
	}
	return saved, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("select product %d: %w", id, err)
	}
	return p, nil
}

func (r *PostgresRepository) Image(ctx context.Context, id int64) (catalog.Image, error) {
	query := `SELECT image_name, image_type, image_data FROM products WHERE id = $1`

	var img catalog.Image
	err := r.db.QueryRowContext(ctx, query, id).Scan(&img.Name, &img.ContentType, &img.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Image{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Image{}, fmt.Errorf("select product image %d: %w", id, err)
	}
	if len(img.Data) == 0 {
		return catalog.Image{}, catalog.ErrImageNotFound
	}
	return img, nil
}

func (r *PostgresRepository) DeleteByID(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return catalog.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id`
	return r.queryProducts(ctx, query)
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]catalog.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`
	return r.queryProducts(ctx, query, limit, offset)
}

// Search matches the keyword case-insensitively against the text fields.
func (r *PostgresRepository) Search(ctx context.Context, keyword string) ([]catalog.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE '%' || $1 || '%'
			OR description ILIKE '%' || $1 || '%'
			OR brand ILIKE '%' || $1 || '%'
			OR category ILIKE '%' || $1 || '%'
		ORDER BY id
	`
	return r.queryProducts(ctx, query, keyword)
}

func (r *PostgresRepository) queryProducts(ctx context.Context, query string, args ...any) ([]catalog.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	list := make([]catalog.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	return r.db.PingContext(ctx)
}
