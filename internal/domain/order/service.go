package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/gstxxx/cantina/internal/domain/customer"
	"github.com/gstxxx/cantina/internal/domain/ledger"
	"github.com/gstxxx/cantina/internal/domain/money"
	"github.com/gstxxx/cantina/internal/domain/product"
)

// OpenRequest holds the input for opening an order.
type OpenRequest struct {
	UnitID     string
	Channel    Channel
	TableID    *string
	CustomerID *string
	Notes      string
}

// AddItemRequest holds the input for adding a line item.
type AddItemRequest struct {
	ProductID string
	Qty       int
	Notes     string
}

// CloseRequest holds the input for closing an order.
type CloseRequest struct {
	OnCredit bool
	// PaidType and PaidCents apply to non-credit closes only. A nil
	// PaidCents defaults to the recomputed total.
	PaidType  *TenderType
	PaidCents *money.Cents
}

// Service encapsulates order lifecycle business logic: item mutation with
// totals recalculation, and the closing workflow.
type Service struct {
	orders    Repository
	products  product.Repository
	customers customer.Repository
	now       func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(orders Repository, products product.Repository, customers customer.Repository) *Service {
	return &Service{
		orders:    orders,
		products:  products,
		customers: customers,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Open creates a new OPEN order with zero items.
func (s *Service) Open(ctx context.Context, tenantID string, req OpenRequest) (*Order, error) {
	o, err := New(tenantID, req.UnitID, req.Channel, s.now())
	if err != nil {
		return nil, err
	}
	o.TableID = req.TableID
	o.Notes = req.Notes

	if req.CustomerID != nil {
		if _, err := s.customers.Get(ctx, tenantID, *req.CustomerID); err != nil {
			return nil, err
		}
		o.CustomerID = req.CustomerID
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, tenantID, orderID string) (*Order, error) {
	return s.orders.Get(ctx, tenantID, orderID)
}

// AddItem snapshots the product's current price into a new line item and
// persists the order with recomputed totals. The snapshot stays pinned for
// the life of the line even if the catalog price changes afterwards.
func (s *Service) AddItem(ctx context.Context, tenantID, orderID string, req AddItemRequest) (*Item, error) {
	if req.Qty < 1 {
		return nil, &InvalidQuantityError{Qty: req.Qty}
	}

	o, err := s.orders.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.FindActive(ctx, tenantID, req.ProductID)
	if err != nil {
		return nil, err
	}

	it, err := NewItem(o.ID, p.ID, p.PriceCents, req.Qty, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := o.AddItem(it); err != nil {
		return nil, err
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return &o.Items[len(o.Items)-1], nil
}

// UpdateItemQty changes a line's quantity and persists recomputed totals.
func (s *Service) UpdateItemQty(ctx context.Context, tenantID, orderID, itemID string, qty int) (*Item, error) {
	o, err := s.orders.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	it, err := o.UpdateItemQty(itemID, qty)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return it, nil
}

// RemoveItem deletes a line item and persists recomputed totals.
func (s *Service) RemoveItem(ctx context.Context, tenantID, orderID, itemID string) (*Order, error) {
	o, err := s.orders.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// SetFields applies header updates (table, customer, channel, notes,
// discount) to an OPEN order. A referenced customer must exist.
func (s *Service) SetFields(ctx context.Context, tenantID, orderID string, patch FieldPatch) (*Order, error) {
	o, err := s.orders.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if patch.CustomerID != nil {
		if _, err := s.customers.Get(ctx, tenantID, *patch.CustomerID); err != nil {
			return nil, err
		}
	}

	if err := o.SetFields(patch); err != nil {
		return nil, err
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Close transitions an OPEN order to CLOSED. Totals are recomputed from the
// current items immediately before they are read. A credit close requires an
// active customer and atomically records a matching CHARGE ledger entry; a
// paid close records the tender and never touches the ledger.
func (s *Service) Close(ctx context.Context, tenantID, orderID string, req CloseRequest) (*Order, error) {
	o, err := s.orders.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusOpen {
		return nil, ErrNotOpen
	}

	// Guard against stale totals from mutations since the last write. The
	// repository recomputes again under the close lock; this keeps the
	// in-memory view consistent for validation.
	o.RecalcTotals()

	var charge *ledger.Entry
	if req.OnCredit {
		if o.CustomerID == nil {
			return nil, ErrCustomerRequired
		}

		c, err := s.customers.Get(ctx, tenantID, *o.CustomerID)
		if err != nil {
			return nil, err
		}
		if !c.Active {
			return nil, customer.ErrInactive
		}

		if err := o.markClosedCredit(s.now()); err != nil {
			return nil, err
		}

		// A zero-total order cannot go on the tab: the charge amount must be
		// positive, so NewEntry rejects it and the order stays OPEN.
		charge, err = ledger.NewEntry(tenantID, c.ID, ledger.TypeCharge, o.TotalCents, *o.ClosedAt)
		if err != nil {
			return nil, err
		}
		charge.UnitID = &o.UnitID
		charge.OrderID = &o.ID
		charge.Description = o.ChargeDescription()
	} else {
		if err := o.markClosedPaid(s.now(), req.PaidType, req.PaidCents); err != nil {
			return nil, err
		}
	}

	if err := s.orders.CloseAtomic(ctx, o, charge); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel transitions an OPEN order to CANCELED. No ledger interaction.
func (s *Service) Cancel(ctx context.Context, tenantID, orderID string) (*Order, error) {
	o, err := s.orders.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}

	if err := o.markCanceled(s.now()); err != nil {
		return nil, err
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
