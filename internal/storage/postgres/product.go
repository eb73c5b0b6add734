package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gstxxx/cantina/internal/domain/product"
)

const (
	findActiveProductSQL = `SELECT id, tenant_id, name, price_cents, active
		FROM products WHERE tenant_id = $1 AND id = $2 AND active = TRUE`

	listProductsSQL = `SELECT id, tenant_id, name, price_cents, active
		FROM products WHERE tenant_id = $1 ORDER BY name`

	insertProductSQL = `INSERT INTO products (id, tenant_id, name, price_cents, active)
		VALUES ($1, $2, $3, $4, $5)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// FindActive returns the active product with the given ID, or
// product.ErrNotFound. Inactive products are invisible to orders.
func (r *ProductRepository) FindActive(ctx context.Context, tenantID, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, findActiveProductSQL, tenantID, id)
	if err != nil {
		return nil, errors.Wrapf(err, "select product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select product %q", id)
	}
	return &p, nil
}

// List returns all of the tenant's products ordered by name.
func (r *ProductRepository) List(ctx context.Context, tenantID string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL, p.ID, p.TenantID, p.Name, p.PriceCents, p.Active)
	if err != nil {
		return errors.Wrapf(err, "insert product %q", p.ID)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.PriceCents, &p.Active)
	return p, err
}
