// Package unit models a branch (physical location) of the chain.
package unit

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a unit does not exist within the tenant.
var ErrNotFound = errors.New("unit not found")

// Unit is a branch of the chain. Orders and ledger entries may reference the
// unit they originated from.
type Unit struct {
	ID       string
	TenantID string
	Name     string
	Active   bool
}

// Repository defines persistence operations for units.
type Repository interface {
	Get(ctx context.Context, tenantID, id string) (*Unit, error)
	List(ctx context.Context, tenantID string) ([]Unit, error)
	Create(ctx context.Context, u *Unit) error
}
