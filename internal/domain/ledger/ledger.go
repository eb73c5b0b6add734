// Package ledger implements the append-only customer credit ledger.
//
// Entries are immutable once written: there is no update or delete, and
// corrections are made by appending further entries. Balances are always
// derived by folding a customer's full entry history, so the log is the
// single source of truth and cannot drift from a cached counter.
package ledger

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/gstxxx/cantina/internal/domain/money"
)

// EntryType classifies a ledger entry's effect on the customer balance.
type EntryType string

const (
	// TypeCharge increases what the customer owes (a sale on credit).
	TypeCharge EntryType = "CHARGE"
	// TypePayment decreases what the customer owes.
	TypePayment EntryType = "PAYMENT"
	// TypeAdjust is a staff correction. It decreases the balance, same as a
	// payment; a charge-direction correction is recorded as a CHARGE.
	TypeAdjust EntryType = "ADJUST"
)

var (
	// ErrInvalidAmount is returned when an entry amount is not a positive
	// number of cents.
	ErrInvalidAmount = errors.New("amount must be a positive number of cents")
	// ErrInvalidType is returned for an unknown entry type.
	ErrInvalidType = errors.New("invalid ledger entry type")
)

// Entry is a single immutable ledger record.
type Entry struct {
	ID          string
	TenantID    string
	CustomerID  string
	UnitID      *string
	OrderID     *string
	Type        EntryType
	AmountCents money.Cents
	Description string
	OccurredAt  time.Time
}

// NewEntry constructs a ledger entry, rejecting invalid amounts and types so
// an invalid record can never reach the log.
func NewEntry(tenantID, customerID string, t EntryType, amount money.Cents, occurredAt time.Time) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	switch t {
	case TypeCharge, TypePayment, TypeAdjust:
	default:
		return nil, ErrInvalidType
	}

	return &Entry{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		CustomerID:  customerID,
		Type:        t,
		AmountCents: amount,
		OccurredAt:  occurredAt.UTC(),
	}, nil
}

// signed returns the entry amount with the sign it contributes to a balance
// fold: charges add, payments and adjustments subtract.
func (e *Entry) signed() money.Cents {
	if e.Type == TypeCharge {
		return e.AmountCents
	}
	return -e.AmountCents
}

// Repository defines persistence operations for ledger entries. Append is
// the only write; implementations must never expose update or delete.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	// ListByCustomer returns all entries for the customer in ascending
	// OccurredAt order.
	ListByCustomer(ctx context.Context, tenantID, customerID string) ([]Entry, error)
	// ListBetween returns the customer's entries with OccurredAt in
	// [from, to), ascending.
	ListBetween(ctx context.Context, tenantID, customerID string, from, to time.Time) ([]Entry, error)
}

// Fold replays entries in order and returns the resulting balance. A
// negative result means the customer holds credit in their favor.
func Fold(entries []Entry) money.Cents {
	var running money.Cents
	for i := range entries {
		running += entries[i].signed()
	}
	return running
}
