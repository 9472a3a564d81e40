package db

import (
	"context"
	"fmt"

	"github.com/benjamincozon/shopassist/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the products table the catalog is read from
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	position         SERIAL,
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	category         TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	price            NUMERIC(12,2) NOT NULL CHECK (price > 0),
	original_price   NUMERIC(12,2),
	discount_rate    INTEGER,
	rating           NUMERIC(2,1) NOT NULL DEFAULT 0,
	review_count     INTEGER NOT NULL DEFAULT 0,
	in_stock         BOOLEAN NOT NULL DEFAULT TRUE,
	is_featured      BOOLEAN NOT NULL DEFAULT FALSE,
	is_fast_delivery BOOLEAN NOT NULL DEFAULT FALSE,
	tags             TEXT[] NOT NULL DEFAULT '{}',
	features         TEXT[] NOT NULL DEFAULT '{}'
)`

// Queries wraps database operations
type Queries struct {
	pool *pgxpool.Pool
}

// New creates a new Queries instance
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// Connect establishes a database connection pool
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Migrate creates the products table if missing
func (q *Queries) Migrate(ctx context.Context) error {
	if _, err := q.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Product operations

const listProducts = `
	SELECT id, name, category, description, price::float8, original_price::float8, discount_rate,
		rating::float8, review_count, in_stock, is_featured, is_fast_delivery, tags, features
	FROM products ORDER BY position`

// ListProducts returns every product in insertion order
func (q *Queries) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := q.pool.Query(ctx, listProducts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.CollectableRow) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.OriginalPrice, &p.DiscountRate,
		&p.Rating, &p.ReviewCount, &p.InStock, &p.IsFeatured, &p.IsFastDelivery, &p.Tags, &p.Features)
	return p, err
}

// CreateProduct inserts a product at the end of the catalog order
func (q *Queries) CreateProduct(ctx context.Context, p models.Product) error {
	tags, features := p.Tags, p.Features
	if tags == nil {
		tags = []string{}
	}
	if features == nil {
		features = []string{}
	}
	_, err := q.pool.Exec(ctx, `
		INSERT INTO products (id, name, category, description, price, original_price, discount_rate,
			rating, review_count, in_stock, is_featured, is_fast_delivery, tags, features)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, p.ID, p.Name, p.Category, p.Description, p.Price, p.OriginalPrice, p.DiscountRate,
		p.Rating, p.ReviewCount, p.InStock, p.IsFeatured, p.IsFastDelivery, tags, features)
	return err
}

// Load implements catalog.Source
func (q *Queries) Load(ctx context.Context) ([]models.Product, error) {
	return q.ListProducts(ctx)
}

// CountProducts returns the number of stored products
func (q *Queries) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := q.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// SeedIfEmpty inserts products in order when the table holds none.
// It reports how many rows were written.
func (q *Queries) SeedIfEmpty(ctx context.Context, products []models.Product) (int, error) {
	n, err := q.CountProducts(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i, p := range products {
		if err := q.CreateProduct(ctx, p); err != nil {
			return i, fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return len(products), nil
}
