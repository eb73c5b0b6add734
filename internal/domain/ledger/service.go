package ledger

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/gstxxx/cantina/internal/domain/customer"
	"github.com/gstxxx/cantina/internal/domain/money"
	"github.com/gstxxx/cantina/internal/domain/unit"
)

// ErrInvalidMonth is returned when a statement month is outside 1..12.
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

// Statement is the monthly view of a customer's ledger activity.
type Statement struct {
	Entries []Entry
	// TotalCharges sums CHARGE entries in the period.
	TotalCharges money.Cents
	// TotalPayments sums PAYMENT and ADJUST entries in the period.
	TotalPayments money.Cents
	// Balance is TotalCharges minus TotalPayments for the period.
	Balance money.Cents
}

// AppendRequest carries the optional attributes of a manual ledger append.
type AppendRequest struct {
	UnitID      *string
	OrderID     *string
	Description string
	// OccurredAt defaults to the service clock when zero.
	OccurredAt time.Time
}

// Service exposes ledger reads and writes with customer and unit validation.
type Service struct {
	entries   Repository
	customers customer.Repository
	units     unit.Repository
	now       func() time.Time
}

// NewService creates a ledger Service with the required collaborators.
func NewService(entries Repository, customers customer.Repository, units unit.Repository) *Service {
	return &Service{
		entries:   entries,
		customers: customers,
		units:     units,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Append validates the target customer and appends an entry of the given
// type. Used for manual charges and adjustments; credit-close charges are
// written inside the order close transaction instead.
func (s *Service) Append(ctx context.Context, tenantID, customerID string, t EntryType, amount money.Cents, req AppendRequest) (*Entry, error) {
	if _, err := s.customers.Get(ctx, tenantID, customerID); err != nil {
		return nil, err
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	e, err := NewEntry(tenantID, customerID, t, amount, occurredAt)
	if err != nil {
		return nil, err
	}
	e.UnitID = req.UnitID
	e.OrderID = req.OrderID
	e.Description = req.Description

	if err := s.entries.Append(ctx, e); err != nil {
		return nil, errors.Wrap(err, "append entry")
	}
	return e, nil
}

// RegisterPayment appends a PAYMENT entry for an active customer. When a
// unit is given it must exist within the same tenant.
func (s *Service) RegisterPayment(ctx context.Context, tenantID, customerID string, amount money.Cents, req AppendRequest) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	c, err := s.customers.Get(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, customer.ErrInactive
	}

	if req.UnitID != nil {
		if _, err := s.units.Get(ctx, tenantID, *req.UnitID); err != nil {
			return nil, err
		}
	}

	return s.Append(ctx, tenantID, customerID, TypePayment, amount, req)
}

// Balance folds the customer's full entry history and returns the amount
// owed. The fold runs over every entry on every call; the ledger is the only
// source of truth and no counter is cached.
func (s *Service) Balance(ctx context.Context, tenantID, customerID string) (money.Cents, error) {
	if _, err := s.customers.Get(ctx, tenantID, customerID); err != nil {
		return 0, err
	}

	entries, err := s.entries.ListByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return 0, errors.Wrap(err, "list entries")
	}
	return Fold(entries), nil
}

// Entries returns the customer's full entry history in ascending
// OccurredAt order.
func (s *Service) Entries(ctx context.Context, tenantID, customerID string) ([]Entry, error) {
	if _, err := s.customers.Get(ctx, tenantID, customerID); err != nil {
		return nil, err
	}
	return s.entries.ListByCustomer(ctx, tenantID, customerID)
}

// MonthStatement returns the customer's ledger activity for the given
// 1-indexed month, bounded in UTC.
func (s *Service) MonthStatement(ctx context.Context, tenantID, customerID string, year int, month int) (*Statement, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}
	if _, err := s.customers.Get(ctx, tenantID, customerID); err != nil {
		return nil, err
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	entries, err := s.entries.ListBetween(ctx, tenantID, customerID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "list entries")
	}

	st := &Statement{Entries: entries}
	for i := range entries {
		if entries[i].Type == TypeCharge {
			st.TotalCharges += entries[i].AmountCents
		} else {
			st.TotalPayments += entries[i].AmountCents
		}
	}
	st.Balance = st.TotalCharges - st.TotalPayments
	return st, nil
}
