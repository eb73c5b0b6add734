package product

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/gstxxx/cantina/internal/domain/money"
)

// ErrNotFound is returned when a product does not exist, is inactive, or
// belongs to another tenant.
var ErrNotFound = errors.New("product not found")

// Product is a sellable menu item. PriceCents is the current list price;
// orders snapshot it at add time and never read it again.
type Product struct {
	ID         string
	TenantID   string
	Name       string
	PriceCents money.Cents
	Active     bool
}

// Repository defines persistence operations for products.
type Repository interface {
	// FindActive returns the active product with the given ID within the
	// tenant, or ErrNotFound.
	FindActive(ctx context.Context, tenantID, id string) (*Product, error)
	List(ctx context.Context, tenantID string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
}
