// Package memory provides mutex-guarded in-memory repositories. They back
// unit and handler tests; the postgres package is the production storage.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gstxxx/cantina/internal/domain/customer"
	"github.com/gstxxx/cantina/internal/domain/ledger"
	"github.com/gstxxx/cantina/internal/domain/money"
	"github.com/gstxxx/cantina/internal/domain/order"
	"github.com/gstxxx/cantina/internal/domain/product"
	"github.com/gstxxx/cantina/internal/domain/unit"
)

// Store holds all in-memory state behind a single mutex so that compound
// operations (order close + ledger append) are atomic.
type Store struct {
	mu        sync.Mutex
	orders    map[string]*order.Order
	entries   []ledger.Entry
	customers map[string]*customer.Customer
	products  map[string]*product.Product
	units     map[string]*unit.Unit
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		orders:    make(map[string]*order.Order),
		customers: make(map[string]*customer.Customer),
		products:  make(map[string]*product.Product),
		units:     make(map[string]*unit.Unit),
	}
}

func cloneOrder(o *order.Order) *order.Order {
	c := *o
	c.Items = append([]order.Item(nil), o.Items...)
	return &c
}

// --- order.Repository ---

// OrderRepository implements order.Repository on a Store.
type OrderRepository struct{ s *Store }

var _ order.Repository = (*OrderRepository)(nil)

// NewOrderRepository returns an OrderRepository backed by the store.
func NewOrderRepository(s *Store) *OrderRepository { return &OrderRepository{s: s} }

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepository) Get(_ context.Context, tenantID, id string) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[id]
	if !ok || stored.TenantID != tenantID {
		return nil, order.ErrNotFound
	}
	return cloneOrder(stored), nil
}

func (r *OrderRepository) Save(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[o.ID]
	if !ok || stored.TenantID != o.TenantID {
		return order.ErrNotFound
	}
	if stored.Status != order.StatusOpen {
		return order.ErrConflict
	}

	r.s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepository) CloseAtomic(_ context.Context, o *order.Order, charge *ledger.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[o.ID]
	if !ok || stored.TenantID != o.TenantID {
		return order.ErrNotFound
	}
	if stored.Status != order.StatusOpen {
		return order.ErrConflict
	}

	// Recompute from the stored items under the lock: the charge amount and
	// the persisted total must come from the same item set.
	var subtotal money.Cents
	for i := range stored.Items {
		subtotal += stored.Items[i].TotalCents
	}
	total := money.FloorZero(subtotal - stored.DiscountCents)
	if charge != nil && total <= 0 {
		return ledger.ErrInvalidAmount
	}

	o.Items = append([]order.Item(nil), stored.Items...)
	o.DiscountCents = stored.DiscountCents
	o.SubtotalCents = subtotal
	o.TotalCents = total

	if !o.OnCredit && o.PaidCents == nil {
		paid := total
		o.PaidCents = &paid
	}

	if charge != nil {
		charge.AmountCents = total
		r.s.entries = append(r.s.entries, *charge)
	}
	r.s.orders[o.ID] = cloneOrder(o)
	return nil
}

// --- ledger.Repository ---

// LedgerRepository implements ledger.Repository on a Store.
type LedgerRepository struct{ s *Store }

var _ ledger.Repository = (*LedgerRepository)(nil)

// NewLedgerRepository returns a LedgerRepository backed by the store.
func NewLedgerRepository(s *Store) *LedgerRepository { return &LedgerRepository{s: s} }

func (r *LedgerRepository) Append(_ context.Context, e *ledger.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.entries = append(r.s.entries, *e)
	return nil
}

func (r *LedgerRepository) ListByCustomer(_ context.Context, tenantID, customerID string) ([]ledger.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []ledger.Entry
	for _, e := range r.s.entries {
		if e.TenantID == tenantID && e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (r *LedgerRepository) ListBetween(_ context.Context, tenantID, customerID string, from, to time.Time) ([]ledger.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []ledger.Entry
	for _, e := range r.s.entries {
		if e.TenantID == tenantID && e.CustomerID == customerID &&
			!e.OccurredAt.Before(from) && e.OccurredAt.Before(to) {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func sortEntries(entries []ledger.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.Before(entries[j].OccurredAt)
	})
}

// --- customer.Repository ---

// CustomerRepository implements customer.Repository on a Store.
type CustomerRepository struct{ s *Store }

var _ customer.Repository = (*CustomerRepository)(nil)

// NewCustomerRepository returns a CustomerRepository backed by the store.
func NewCustomerRepository(s *Store) *CustomerRepository { return &CustomerRepository{s: s} }

func (r *CustomerRepository) Get(_ context.Context, tenantID, id string) (*customer.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.customers[id]
	if !ok || c.TenantID != tenantID {
		return nil, customer.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (r *CustomerRepository) List(_ context.Context, tenantID string) ([]customer.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []customer.Customer
	for _, c := range r.s.customers {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CustomerRepository) Create(_ context.Context, c *customer.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cc := *c
	r.s.customers[c.ID] = &cc
	return nil
}

func (r *CustomerRepository) SetActive(_ context.Context, tenantID, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.customers[id]
	if !ok || c.TenantID != tenantID {
		return customer.ErrNotFound
	}
	c.Active = active
	return nil
}

// --- product.Repository ---

// ProductRepository implements product.Repository on a Store.
type ProductRepository struct{ s *Store }

var _ product.Repository = (*ProductRepository)(nil)

// NewProductRepository returns a ProductRepository backed by the store.
func NewProductRepository(s *Store) *ProductRepository { return &ProductRepository{s: s} }

func (r *ProductRepository) FindActive(_ context.Context, tenantID, id string) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok || p.TenantID != tenantID || !p.Active {
		return nil, product.ErrNotFound
	}
	pp := *p
	return &pp, nil
}

func (r *ProductRepository) List(_ context.Context, tenantID string) ([]product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []product.Product
	for _, p := range r.s.products {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ProductRepository) Create(_ context.Context, p *product.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	pp := *p
	r.s.products[p.ID] = &pp
	return nil
}

// --- unit.Repository ---

// UnitRepository implements unit.Repository on a Store.
type UnitRepository struct{ s *Store }

var _ unit.Repository = (*UnitRepository)(nil)

// NewUnitRepository returns a UnitRepository backed by the store.
func NewUnitRepository(s *Store) *UnitRepository { return &UnitRepository{s: s} }

func (r *UnitRepository) Get(_ context.Context, tenantID, id string) (*unit.Unit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.units[id]
	if !ok || u.TenantID != tenantID {
		return nil, unit.ErrNotFound
	}
	uu := *u
	return &uu, nil
}

func (r *UnitRepository) List(_ context.Context, tenantID string) ([]unit.Unit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []unit.Unit
	for _, u := range r.s.units {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *UnitRepository) Create(_ context.Context, u *unit.Unit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	uu := *u
	r.s.units[u.ID] = &uu
	return nil
}
