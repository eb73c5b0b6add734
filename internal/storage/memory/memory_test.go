package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gstxxx/cantina/internal/domain/ledger"
	"github.com/gstxxx/cantina/internal/domain/money"
	"github.com/gstxxx/cantina/internal/domain/order"
)

var testTime = time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)

func storedOpenOrder(t *testing.T, repo *OrderRepository, prices ...money.Cents) *order.Order {
	t.Helper()

	o, err := order.New("t1", "u1", order.ChannelCounter, testTime)
	require.NoError(t, err)
	for _, p := range prices {
		it, err := order.NewItem(o.ID, "p1", p, 1, "")
		require.NoError(t, err)
		require.NoError(t, o.AddItem(it))
	}
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

// closingView mimics what the order service hands to CloseAtomic: the
// caller's read of the order, already flipped to CLOSED on credit.
func closingView(o *order.Order, customerID string) (*order.Order, *ledger.Entry) {
	c := *o
	c.Items = append([]order.Item(nil), o.Items...)
	c.Status = order.StatusClosed
	c.OnCredit = true
	c.CustomerID = &customerID
	closedAt := testTime
	c.ClosedAt = &closedAt

	charge := &ledger.Entry{
		ID:          "e1",
		TenantID:    c.TenantID,
		CustomerID:  customerID,
		OrderID:     &c.ID,
		Type:        ledger.TypeCharge,
		AmountCents: c.TotalCents,
		OccurredAt:  testTime,
	}
	return &c, charge
}

func TestCloseAtomic_UsesLockedDiscount(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewOrderRepository(store)

	o := storedOpenOrder(t, repo, 400)
	closing, charge := closingView(o, "c1")

	// A discount lands between the closer's read and its commit.
	patched, err := repo.Get(ctx, "t1", o.ID)
	require.NoError(t, err)
	require.NoError(t, patched.SetFields(order.FieldPatch{DiscountCents: centsPtr(100)}))
	require.NoError(t, repo.Save(ctx, patched))

	require.NoError(t, repo.CloseAtomic(ctx, closing, charge))

	stored, err := repo.Get(ctx, "t1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(400), stored.SubtotalCents)
	assert.Equal(t, money.Cents(100), stored.DiscountCents)
	assert.Equal(t, money.FloorZero(stored.SubtotalCents-stored.DiscountCents), stored.TotalCents)
	assert.Equal(t, money.Cents(300), charge.AmountCents)
}

func TestCloseAtomic_ZeroTotalChargeRejected(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewOrderRepository(store)

	o := storedOpenOrder(t, repo, 400)
	closing, charge := closingView(o, "c1")

	// All items vanish between the closer's read and its commit.
	patched, err := repo.Get(ctx, "t1", o.ID)
	require.NoError(t, err)
	require.NoError(t, patched.RemoveItem(patched.Items[0].ID))
	require.NoError(t, repo.Save(ctx, patched))

	err = repo.CloseAtomic(ctx, closing, charge)
	require.ErrorIs(t, err, ledger.ErrInvalidAmount)

	stored, err := repo.Get(ctx, "t1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusOpen, stored.Status)

	entries, err := NewLedgerRepository(store).ListByCustomer(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCloseAtomic_ClosedOrderConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewOrderRepository(store)

	o := storedOpenOrder(t, repo, 400)
	closing, charge := closingView(o, "c1")
	require.NoError(t, repo.CloseAtomic(ctx, closing, charge))

	again, secondCharge := closingView(o, "c1")
	require.ErrorIs(t, repo.CloseAtomic(ctx, again, secondCharge), order.ErrConflict)

	entries, err := NewLedgerRepository(store).ListByCustomer(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSave_NonOpenOrderConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewOrderRepository(store)

	o := storedOpenOrder(t, repo, 400)
	closing, _ := closingView(o, "c1")
	closing.OnCredit = false
	paid := closing.TotalCents
	closing.PaidCents = &paid
	require.NoError(t, repo.CloseAtomic(ctx, closing, nil))

	stale, err := order.New("t1", "u1", order.ChannelCounter, testTime)
	require.NoError(t, err)
	stale.ID = o.ID
	require.ErrorIs(t, repo.Save(ctx, stale), order.ErrConflict)
}

func centsPtr(c money.Cents) *money.Cents { return &c }
