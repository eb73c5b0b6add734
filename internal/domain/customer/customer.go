// Package customer holds the customer entity used for credit ("fiado")
// accounts. A customer's balance is never stored here: it is always derived
// from the ledger.
package customer

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a customer does not exist within the tenant.
	ErrNotFound = errors.New("customer not found")
	// ErrInactive is returned when an operation requires an active customer.
	ErrInactive = errors.New("customer is inactive")
)

// Customer is a credit-account holder.
type Customer struct {
	ID       string
	TenantID string
	Name     string
	Phone    string
	Notes    string
	Active   bool
}

// Repository defines persistence operations for customers.
type Repository interface {
	Get(ctx context.Context, tenantID, id string) (*Customer, error)
	List(ctx context.Context, tenantID string) ([]Customer, error)
	Create(ctx context.Context, c *Customer) error
	SetActive(ctx context.Context, tenantID, id string, active bool) error
}
