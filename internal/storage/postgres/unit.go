package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gstxxx/cantina/internal/domain/unit"
)

const (
	getUnitSQL = `SELECT id, tenant_id, name, active
		FROM units WHERE tenant_id = $1 AND id = $2`

	listUnitsSQL = `SELECT id, tenant_id, name, active
		FROM units WHERE tenant_id = $1 ORDER BY name`

	insertUnitSQL = `INSERT INTO units (id, tenant_id, name, active)
		VALUES ($1, $2, $3, $4)`
)

var _ unit.Repository = (*UnitRepository)(nil)

// UnitRepository implements unit.Repository backed by PostgreSQL.
type UnitRepository struct {
	pool *pgxpool.Pool
}

// NewUnitRepository returns a UnitRepository that uses the given pool.
func NewUnitRepository(pool *pgxpool.Pool) *UnitRepository {
	return &UnitRepository{pool: pool}
}

// Get returns a unit by ID, or unit.ErrNotFound.
func (r *UnitRepository) Get(ctx context.Context, tenantID, id string) (*unit.Unit, error) {
	rows, err := r.pool.Query(ctx, getUnitSQL, tenantID, id)
	if err != nil {
		return nil, errors.Wrapf(err, "select unit %q", id)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUnit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, unit.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select unit %q", id)
	}
	return &u, nil
}

// List returns all of the tenant's units ordered by name.
func (r *UnitRepository) List(ctx context.Context, tenantID string) ([]unit.Unit, error) {
	rows, err := r.pool.Query(ctx, listUnitsSQL, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "list units")
	}
	return pgx.CollectRows(rows, scanUnit)
}

// Create persists a new unit.
func (r *UnitRepository) Create(ctx context.Context, u *unit.Unit) error {
	_, err := r.pool.Exec(ctx, insertUnitSQL, u.ID, u.TenantID, u.Name, u.Active)
	if err != nil {
		return errors.Wrapf(err, "insert unit %q", u.ID)
	}
	return nil
}

func scanUnit(row pgx.CollectableRow) (unit.Unit, error) {
	var u unit.Unit
	err := row.Scan(&u.ID, &u.TenantID, &u.Name, &u.Active)
	return u, err
}
