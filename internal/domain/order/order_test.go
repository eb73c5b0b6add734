package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gstxxx/cantina/internal/domain/money"
)

func newOpenOrder(t *testing.T) *Order {
	t.Helper()
	o, err := New("t1", "u1", ChannelTable, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return o
}

func mustItem(t *testing.T, o *Order, productID string, price money.Cents, qty int) Item {
	t.Helper()
	it, err := NewItem(o.ID, productID, price, qty, "")
	require.NoError(t, err)
	return it
}

func TestNew_InvalidChannel(t *testing.T) {
	_, err := New("t1", "u1", Channel("DRIVE_THRU"), time.Now())
	require.ErrorIs(t, err, ErrInvalidChannel)
}

func TestNewItem_InvalidQuantity(t *testing.T) {
	_, err := NewItem("o1", "p1", 400, 0, "")

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, 0, iqErr.Qty)
}

func TestRecalcTotals(t *testing.T) {
	o := newOpenOrder(t)
	require.NoError(t, o.AddItem(mustItem(t, o, "coffee", 400, 2)))
	require.NoError(t, o.AddItem(mustItem(t, o, "cheese-bread", 650, 1)))
	require.NoError(t, o.SetFields(FieldPatch{DiscountCents: centsPtr(50)}))

	assert.Equal(t, money.Cents(1450), o.SubtotalCents)
	assert.Equal(t, money.Cents(1400), o.TotalCents)
}

func TestRecalcTotals_DiscountFlooredAtZero(t *testing.T) {
	o := newOpenOrder(t)
	require.NoError(t, o.AddItem(mustItem(t, o, "coffee", 400, 1)))
	require.NoError(t, o.SetFields(FieldPatch{DiscountCents: centsPtr(10_000)}))

	assert.Equal(t, money.Cents(400), o.SubtotalCents)
	assert.Equal(t, money.Cents(0), o.TotalCents)
}

func TestUpdateItemQty_RederivesFromSnapshot(t *testing.T) {
	o := newOpenOrder(t)
	require.NoError(t, o.AddItem(mustItem(t, o, "coffee", 400, 1)))

	it, err := o.UpdateItemQty(o.Items[0].ID, 3)
	require.NoError(t, err)

	assert.Equal(t, money.Cents(400), it.PriceCents)
	assert.Equal(t, money.Cents(1200), it.TotalCents)
	assert.Equal(t, money.Cents(1200), o.TotalCents)
}

func TestUpdateItemQty_UnknownItem(t *testing.T) {
	o := newOpenOrder(t)

	_, err := o.UpdateItemQty("nope", 2)

	var nfErr *ItemNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "nope", nfErr.ItemID)
}

func TestRemoveItem(t *testing.T) {
	o := newOpenOrder(t)
	require.NoError(t, o.AddItem(mustItem(t, o, "coffee", 400, 2)))
	require.NoError(t, o.AddItem(mustItem(t, o, "cheese-bread", 650, 1)))

	require.NoError(t, o.RemoveItem(o.Items[0].ID))

	require.Len(t, o.Items, 1)
	assert.Equal(t, "cheese-bread", o.Items[0].ProductID)
	assert.Equal(t, money.Cents(650), o.TotalCents)
}

func TestSetFields_NegativeDiscount(t *testing.T) {
	o := newOpenOrder(t)
	require.ErrorIs(t, o.SetFields(FieldPatch{DiscountCents: centsPtr(-1)}), ErrNegativeDiscount)
}

func TestMutationsRejectedAfterClose(t *testing.T) {
	o := newOpenOrder(t)
	require.NoError(t, o.AddItem(mustItem(t, o, "coffee", 400, 1)))
	require.NoError(t, o.markClosedPaid(time.Now(), nil, nil))

	assert.ErrorIs(t, o.AddItem(mustItem(t, o, "coffee", 400, 1)), ErrNotOpen)
	_, err := o.UpdateItemQty(o.Items[0].ID, 2)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, o.RemoveItem(o.Items[0].ID), ErrNotOpen)
	assert.ErrorIs(t, o.SetFields(FieldPatch{Notes: strPtr("late")}), ErrNotOpen)
}

func TestMarkClosedCredit_RequiresCustomer(t *testing.T) {
	o := newOpenOrder(t)
	require.ErrorIs(t, o.markClosedCredit(time.Now()), ErrCustomerRequired)
	assert.Equal(t, StatusOpen, o.Status)
}

func TestMarkClosedCredit_ClearsTender(t *testing.T) {
	o := newOpenOrder(t)
	o.CustomerID = strPtr("c1")

	require.NoError(t, o.markClosedCredit(time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)))

	assert.Equal(t, StatusClosed, o.Status)
	assert.True(t, o.OnCredit)
	assert.Nil(t, o.PaidType)
	assert.Nil(t, o.PaidCents)
	require.NotNil(t, o.ClosedAt)
	assert.Equal(t, time.UTC, o.ClosedAt.Location())
}

func TestTransitionsAreOneWay(t *testing.T) {
	o := newOpenOrder(t)
	require.NoError(t, o.markCanceled(time.Now()))

	assert.ErrorIs(t, o.markClosedPaid(time.Now(), nil, nil), ErrNotOpen)
	assert.ErrorIs(t, o.markCanceled(time.Now()), ErrNotOpen)
}

func centsPtr(c money.Cents) *money.Cents { return &c }

func strPtr(s string) *string { return &s }
