package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gstxxx/cantina/internal/domain/ledger"
	"github.com/gstxxx/cantina/internal/domain/money"
	"github.com/gstxxx/cantina/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (id, tenant_id, unit_id, table_id, customer_id, channel, status, notes,
		subtotal_cents, discount_cents, total_cents, on_credit, paid_type, paid_cents, opened_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	selectOrderSQL = `SELECT id, tenant_id, unit_id, table_id, customer_id, channel, status, notes,
		subtotal_cents, discount_cents, total_cents, on_credit, paid_type, paid_cents, opened_at, closed_at
		FROM orders WHERE tenant_id = $1 AND id = $2`

	selectOrderForUpdateSQL = selectOrderSQL + ` FOR UPDATE`

	selectItemsSQL = `SELECT id, order_id, product_id, qty, price_cents, total_cents, notes
		FROM order_items WHERE order_id = $1 ORDER BY id`

	updateOpenOrderSQL = `UPDATE orders SET table_id = $3, customer_id = $4, channel = $5, status = $6, notes = $7,
		subtotal_cents = $8, discount_cents = $9, total_cents = $10, on_credit = $11, paid_type = $12,
		paid_cents = $13, closed_at = $14
		WHERE tenant_id = $1 AND id = $2 AND status = 'OPEN'`

	deleteItemsSQL = `DELETE FROM order_items WHERE order_id = $1`

	insertItemSQL = `INSERT INTO order_items (id, order_id, product_id, qty, price_cents, total_cents, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	sumItemsSQL = `SELECT COALESCE(SUM(total_cents), 0) FROM order_items WHERE order_id = $1`
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

// Create persists a new order. Newly opened orders carry no items yet.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := r.pool.Exec(ctx, insertOrderSQL,
		o.ID, o.TenantID, o.UnitID, o.TableID, o.CustomerID, o.Channel, o.Status, o.Notes,
		o.SubtotalCents, o.DiscountCents, o.TotalCents, o.OnCredit, o.PaidType, o.PaidCents,
		o.OpenedAt, o.ClosedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}
	return nil
}

// Get returns the order with its items, or order.ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, tenantID, id string) (*order.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, selectOrderSQL, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select order %q", id)
	}

	rows, err := r.pool.Query(ctx, selectItemsSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "select items of order %q", id)
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, errors.Wrapf(err, "collect items of order %q", id)
	}
	o.Items = items
	return o, nil
}

// Save persists the order row and its full item set in one transaction. The
// row is locked first so concurrent saves and closes serialize on it; a row
// that is no longer OPEN reports order.ErrConflict and writes nothing.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	stored, err := scanOrder(tx.QueryRow(ctx, selectOrderForUpdateSQL, o.TenantID, o.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrNotFound
		}
		return errors.Wrapf(err, "lock order %q", o.ID)
	}
	if stored.Status != order.StatusOpen {
		return order.ErrConflict
	}

	if err := updateOrderRow(ctx, tx, o); err != nil {
		return err
	}
	if err := replaceItems(ctx, tx, o); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(ctx), "commit")
}

// CloseAtomic flips an OPEN order to its terminal state and, for credit
// closes, appends the CHARGE entry in the same transaction. The order row is
// locked for the duration and the totals are recomputed from the stored
// items under that lock, so the charged amount and the persisted total
// always come from the same item set. Both writes commit or neither does.
func (r *OrderRepository) CloseAtomic(ctx context.Context, o *order.Order, charge *ledger.Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	stored, err := scanOrder(tx.QueryRow(ctx, selectOrderForUpdateSQL, o.TenantID, o.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrNotFound
		}
		return errors.Wrapf(err, "lock order %q", o.ID)
	}
	if stored.Status != order.StatusOpen {
		return order.ErrConflict
	}

	var subtotal money.Cents
	if err := tx.QueryRow(ctx, sumItemsSQL, o.ID).Scan(&subtotal); err != nil {
		return errors.Wrapf(err, "sum items of order %q", o.ID)
	}
	// The discount read under the lock wins over the caller's earlier view,
	// so the persisted row always satisfies total = max(0, subtotal - discount).
	o.DiscountCents = stored.DiscountCents
	o.SubtotalCents = subtotal
	o.TotalCents = money.FloorZero(subtotal - stored.DiscountCents)

	// Paid-in-full closes with no explicit amount default to the total
	// recomputed under the lock.
	if !o.OnCredit && o.PaidCents == nil {
		paid := o.TotalCents
		o.PaidCents = &paid
	}

	if err := updateOrderRow(ctx, tx, o); err != nil {
		return err
	}

	if charge != nil {
		if o.TotalCents <= 0 {
			return ledger.ErrInvalidAmount
		}
		charge.AmountCents = o.TotalCents
		if err := insertEntry(ctx, tx, charge); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit")
}

func updateOrderRow(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	tag, err := tx.Exec(ctx, updateOpenOrderSQL,
		o.TenantID, o.ID, o.TableID, o.CustomerID, o.Channel, o.Status, o.Notes,
		o.SubtotalCents, o.DiscountCents, o.TotalCents, o.OnCredit, o.PaidType, o.PaidCents, o.ClosedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "update order %q", o.ID)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrConflict
	}
	return nil
}

func replaceItems(ctx context.Context, tx pgx.Tx, o *order.Order) error {
	if _, err := tx.Exec(ctx, deleteItemsSQL, o.ID); err != nil {
		return errors.Wrapf(err, "delete items of order %q", o.ID)
	}
	for i := range o.Items {
		it := &o.Items[i]
		_, err := tx.Exec(ctx, insertItemSQL,
			it.ID, it.OrderID, it.ProductID, it.Qty, it.PriceCents, it.TotalCents, it.Notes,
		)
		if err != nil {
			return errors.Wrapf(err, "insert item %q", it.ID)
		}
	}
	return nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o        order.Order
		channel  string
		status   string
		paidType *string
		openedAt time.Time
		closedAt *time.Time
	)
	err := row.Scan(
		&o.ID, &o.TenantID, &o.UnitID, &o.TableID, &o.CustomerID, &channel, &status, &o.Notes,
		&o.SubtotalCents, &o.DiscountCents, &o.TotalCents, &o.OnCredit, &paidType, &o.PaidCents,
		&openedAt, &closedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Channel = order.Channel(channel)
	o.Status = order.Status(status)
	if paidType != nil {
		t := order.TenderType(*paidType)
		o.PaidType = &t
	}
	o.OpenedAt = openedAt
	o.ClosedAt = closedAt
	return &o, nil
}

func scanItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.PriceCents, &it.TotalCents, &it.Notes)
	return it, err
}
