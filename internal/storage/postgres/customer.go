package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gstxxx/cantina/internal/domain/customer"
)

const (
	getCustomerSQL = `SELECT id, tenant_id, name, phone, notes, active
		FROM customers WHERE tenant_id = $1 AND id = $2`

	listCustomersSQL = `SELECT id, tenant_id, name, phone, notes, active
		FROM customers WHERE tenant_id = $1 ORDER BY name`

	insertCustomerSQL = `INSERT INTO customers (id, tenant_id, name, phone, notes, active)
		VALUES ($1, $2, $3, $4, $5, $6)`

	setCustomerActiveSQL = `UPDATE customers SET active = $3 WHERE tenant_id = $1 AND id = $2`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Get returns a customer by ID, or customer.ErrNotFound.
func (r *CustomerRepository) Get(ctx context.Context, tenantID, id string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerSQL, tenantID, id)
	if err != nil {
		return nil, errors.Wrapf(err, "select customer %q", id)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select customer %q", id)
	}
	return &c, nil
}

// List returns all of the tenant's customers ordered by name.
func (r *CustomerRepository) List(ctx context.Context, tenantID string) ([]customer.Customer, error) {
	rows, err := r.pool.Query(ctx, listCustomersSQL, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "list customers")
	}
	return pgx.CollectRows(rows, scanCustomer)
}

// Create persists a new customer.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	_, err := r.pool.Exec(ctx, insertCustomerSQL, c.ID, c.TenantID, c.Name, c.Phone, c.Notes, c.Active)
	if err != nil {
		return errors.Wrapf(err, "insert customer %q", c.ID)
	}
	return nil
}

// SetActive flips the customer's active flag.
func (r *CustomerRepository) SetActive(ctx context.Context, tenantID, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, setCustomerActiveSQL, tenantID, id, active)
	if err != nil {
		return errors.Wrapf(err, "update customer %q", id)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Notes, &c.Active)
	return c, err
}
