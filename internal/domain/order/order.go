// Package order implements the order aggregate: a tab of line items with
// derived totals and a one-way OPEN to CLOSED/CANCELED lifecycle.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/gstxxx/cantina/internal/domain/ledger"
	"github.com/gstxxx/cantina/internal/domain/money"
)

// Status is the order lifecycle state. Transitions are one-way: an order
// leaves OPEN exactly once and is immutable afterwards.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusClosed   Status = "CLOSED"
	StatusCanceled Status = "CANCELED"
)

// Channel is the sales channel an order came through.
type Channel string

const (
	ChannelCounter  Channel = "COUNTER"
	ChannelTable    Channel = "TABLE"
	ChannelDelivery Channel = "DELIVERY"
	ChannelTakeout  Channel = "TAKEOUT"
	ChannelOther    Channel = "OTHER"
)

// TenderType is the payment method recorded on a paid close.
type TenderType string

const (
	TenderCash  TenderType = "CASH"
	TenderCard  TenderType = "CARD"
	TenderPix   TenderType = "PIX"
	TenderOther TenderType = "OTHER"
)

// Sentinel errors for order operations.
var (
	ErrNotFound = errors.New("order not found")
	// ErrNotOpen is returned when a mutation or close targets an order that
	// has already left the OPEN state.
	ErrNotOpen = errors.New("order is not open")
	// ErrConflict is returned when a concurrent writer closed or canceled
	// the order between read and write. Safe to retry after re-reading.
	ErrConflict = errors.New("order modified concurrently")
	// ErrCustomerRequired is returned when a credit close has no customer.
	ErrCustomerRequired = errors.New("closing on credit requires a customer")
	// ErrNegativeDiscount is returned for a discount below zero cents.
	ErrNegativeDiscount = errors.New("discount must not be negative")
	// ErrInvalidChannel is returned for an unknown sales channel.
	ErrInvalidChannel = errors.New("invalid order channel")
)

// InvalidQuantityError indicates a line item quantity below one.
type InvalidQuantityError struct {
	Qty int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be at least 1, got %d", e.Qty)
}

// ItemNotFoundError indicates the referenced line item is not on the order.
type ItemNotFoundError struct {
	ItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item %s not found on order", e.ItemID)
}

// Item is a line on an order. PriceCents is the product price snapshot taken
// when the line was added; it is never re-read from the catalog.
type Item struct {
	ID         string
	OrderID    string
	ProductID  string
	Qty        int
	PriceCents money.Cents
	TotalCents money.Cents
	Notes      string
}

// Order is the aggregate root. It is the sole writer of SubtotalCents and
// TotalCents, which are always recomputed from the items and discount.
type Order struct {
	ID         string
	TenantID   string
	UnitID     string
	TableID    *string
	CustomerID *string
	Channel    Channel
	Status     Status
	Notes      string

	Items []Item

	SubtotalCents money.Cents
	DiscountCents money.Cents
	TotalCents    money.Cents

	OnCredit  bool
	PaidType  *TenderType
	PaidCents *money.Cents

	OpenedAt time.Time
	ClosedAt *time.Time
}

// New opens an order with zero items in the OPEN state.
func New(tenantID, unitID string, channel Channel, openedAt time.Time) (*Order, error) {
	if !validChannel(channel) {
		return nil, ErrInvalidChannel
	}

	return &Order{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		UnitID:   unitID,
		Channel:  channel,
		Status:   StatusOpen,
		OpenedAt: openedAt.UTC(),
	}, nil
}

func validChannel(c Channel) bool {
	switch c {
	case ChannelCounter, ChannelTable, ChannelDelivery, ChannelTakeout, ChannelOther:
		return true
	}
	return false
}

// NewItem constructs a line item with the price snapshot pinned and the line
// total derived from it.
func NewItem(orderID, productID string, priceSnapshot money.Cents, qty int, notes string) (Item, error) {
	if qty < 1 {
		return Item{}, &InvalidQuantityError{Qty: qty}
	}

	return Item{
		ID:         uuid.New().String(),
		OrderID:    orderID,
		ProductID:  productID,
		Qty:        qty,
		PriceCents: priceSnapshot,
		TotalCents: money.Line(priceSnapshot, qty),
		Notes:      notes,
	}, nil
}

// RecalcTotals recomputes the derived totals as a pure function of the
// current items and discount. It must run after every item or discount
// mutation and again immediately before closing.
func (o *Order) RecalcTotals() {
	var subtotal money.Cents
	for i := range o.Items {
		subtotal += o.Items[i].TotalCents
	}
	o.SubtotalCents = subtotal
	o.TotalCents = money.FloorZero(subtotal - o.DiscountCents)
}

// AddItem appends a line item and recomputes totals. Fails with ErrNotOpen
// unless the order is OPEN.
func (o *Order) AddItem(it Item) error {
	if o.Status != StatusOpen {
		return ErrNotOpen
	}
	o.Items = append(o.Items, it)
	o.RecalcTotals()
	return nil
}

// UpdateItemQty changes a line's quantity, rederiving the line total from
// the pinned price snapshot, and recomputes order totals.
func (o *Order) UpdateItemQty(itemID string, qty int) (*Item, error) {
	if o.Status != StatusOpen {
		return nil, ErrNotOpen
	}
	if qty < 1 {
		return nil, &InvalidQuantityError{Qty: qty}
	}

	idx := o.itemIndex(itemID)
	if idx < 0 {
		return nil, &ItemNotFoundError{ItemID: itemID}
	}

	it := &o.Items[idx]
	it.Qty = qty
	it.TotalCents = money.Line(it.PriceCents, qty)
	o.RecalcTotals()
	return it, nil
}

// RemoveItem deletes a line item and recomputes totals.
func (o *Order) RemoveItem(itemID string) error {
	if o.Status != StatusOpen {
		return ErrNotOpen
	}

	idx := o.itemIndex(itemID)
	if idx < 0 {
		return &ItemNotFoundError{ItemID: itemID}
	}

	o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
	o.RecalcTotals()
	return nil
}

func (o *Order) itemIndex(itemID string) int {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// FieldPatch carries optional order header updates. Nil fields are left
// untouched.
type FieldPatch struct {
	TableID       *string
	CustomerID    *string
	Channel       *Channel
	Notes         *string
	DiscountCents *money.Cents
}

// SetFields applies a header patch while OPEN. A discount change triggers a
// recalculation.
func (o *Order) SetFields(p FieldPatch) error {
	if o.Status != StatusOpen {
		return ErrNotOpen
	}
	if p.Channel != nil && !validChannel(*p.Channel) {
		return ErrInvalidChannel
	}
	if p.DiscountCents != nil && *p.DiscountCents < 0 {
		return ErrNegativeDiscount
	}

	if p.TableID != nil {
		o.TableID = p.TableID
	}
	if p.CustomerID != nil {
		o.CustomerID = p.CustomerID
	}
	if p.Channel != nil {
		o.Channel = *p.Channel
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.DiscountCents != nil {
		o.DiscountCents = *p.DiscountCents
		o.RecalcTotals()
	}
	return nil
}

// markClosedPaid transitions the order to CLOSED with the tender recorded.
// A nil paid amount is left nil here; the repository fills it with the total
// it recomputes under the close lock, so the default can never come from a
// stale read.
func (o *Order) markClosedPaid(now time.Time, paidType *TenderType, paidCents *money.Cents) error {
	if o.Status != StatusOpen {
		return ErrNotOpen
	}

	closedAt := now.UTC()
	o.Status = StatusClosed
	o.ClosedAt = &closedAt
	o.OnCredit = false
	o.PaidType = paidType
	o.PaidCents = paidCents
	return nil
}

// markClosedCredit transitions the order to CLOSED on credit. Credit orders
// never carry a tender or paid amount.
func (o *Order) markClosedCredit(now time.Time) error {
	if o.Status != StatusOpen {
		return ErrNotOpen
	}
	if o.CustomerID == nil {
		return ErrCustomerRequired
	}

	closedAt := now.UTC()
	o.Status = StatusClosed
	o.ClosedAt = &closedAt
	o.OnCredit = true
	o.PaidType = nil
	o.PaidCents = nil
	return nil
}

// markCanceled transitions the order to CANCELED.
func (o *Order) markCanceled(now time.Time) error {
	if o.Status != StatusOpen {
		return ErrNotOpen
	}

	closedAt := now.UTC()
	o.Status = StatusCanceled
	o.ClosedAt = &closedAt
	return nil
}

// ChargeDescription is the human-readable label written on the ledger CHARGE
// created by a credit close. The text is cosmetic.
func (o *Order) ChargeDescription() string {
	id := o.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("Order %s", id)
}

// Repository defines persistence operations for orders. Implementations must
// persist an order and its items together.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// Get returns the order with its items, or ErrNotFound.
	Get(ctx context.Context, tenantID, id string) (*Order, error)
	// Save persists the order row and its full item set in one unit of work,
	// guarded on the stored row still being OPEN. Returns ErrConflict when a
	// concurrent writer already moved the order out of OPEN.
	Save(ctx context.Context, o *Order) error
	// CloseAtomic persists a close transition together with the optional
	// credit charge in a single transaction: both writes commit or neither
	// does. Implementations hold the order locked for the duration, recompute
	// the totals from the stored items under that lock, and write the
	// recomputed total both to the order and to the charge, so the charged
	// amount can never drift from the stored total. The updated totals are
	// written back into o. Returns ErrConflict when the stored order is no
	// longer OPEN.
	CloseAtomic(ctx context.Context, o *Order, charge *ledger.Entry) error
}
