package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gstxxx/cantina/internal/domain/ledger"
)

const (
	insertEntrySQL = `INSERT INTO ledger_entries (id, tenant_id, customer_id, unit_id, order_id, type,
		amount_cents, description, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	listEntriesSQL = `SELECT id, tenant_id, customer_id, unit_id, order_id, type, amount_cents, description, occurred_at
		FROM ledger_entries WHERE tenant_id = $1 AND customer_id = $2
		ORDER BY occurred_at, id`

	listEntriesBetweenSQL = `SELECT id, tenant_id, customer_id, unit_id, order_id, type, amount_cents, description, occurred_at
		FROM ledger_entries WHERE tenant_id = $1 AND customer_id = $2
		AND occurred_at >= $3 AND occurred_at < $4
		ORDER BY occurred_at, id`
)

var _ ledger.Repository = (*LedgerRepository)(nil)

// LedgerRepository implements ledger.Repository backed by PostgreSQL. The
// table is append-only: no update or delete statement exists in this
// package.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository returns a LedgerRepository that uses the given pool.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Append persists a new immutable entry.
func (r *LedgerRepository) Append(ctx context.Context, e *ledger.Entry) error {
	_, err := r.pool.Exec(ctx, insertEntrySQL,
		e.ID, e.TenantID, e.CustomerID, e.UnitID, e.OrderID, e.Type,
		e.AmountCents, e.Description, e.OccurredAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert ledger entry %q", e.ID)
	}
	return nil
}

// insertEntry writes an entry inside an existing transaction. Used by the
// order close transaction.
func insertEntry(ctx context.Context, tx pgx.Tx, e *ledger.Entry) error {
	_, err := tx.Exec(ctx, insertEntrySQL,
		e.ID, e.TenantID, e.CustomerID, e.UnitID, e.OrderID, e.Type,
		e.AmountCents, e.Description, e.OccurredAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert ledger entry %q", e.ID)
	}
	return nil
}

// ListByCustomer returns all entries for the customer in ascending
// occurred_at order.
func (r *LedgerRepository) ListByCustomer(ctx context.Context, tenantID, customerID string) ([]ledger.Entry, error) {
	rows, err := r.pool.Query(ctx, listEntriesSQL, tenantID, customerID)
	if err != nil {
		return nil, errors.Wrapf(err, "list entries of customer %q", customerID)
	}
	return pgx.CollectRows(rows, scanEntry)
}

// ListBetween returns the customer's entries with occurred_at in [from, to).
func (r *LedgerRepository) ListBetween(ctx context.Context, tenantID, customerID string, from, to time.Time) ([]ledger.Entry, error) {
	rows, err := r.pool.Query(ctx, listEntriesBetweenSQL, tenantID, customerID, from, to)
	if err != nil {
		return nil, errors.Wrapf(err, "list entries of customer %q", customerID)
	}
	return pgx.CollectRows(rows, scanEntry)
}

func scanEntry(row pgx.CollectableRow) (ledger.Entry, error) {
	var (
		e         ledger.Entry
		entryType string
	)
	err := row.Scan(
		&e.ID, &e.TenantID, &e.CustomerID, &e.UnitID, &e.OrderID, &entryType,
		&e.AmountCents, &e.Description, &e.OccurredAt,
	)
	e.Type = ledger.EntryType(entryType)
	return e, err
}
