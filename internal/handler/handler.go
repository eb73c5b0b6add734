// Package handler maps HTTP requests onto the domain services. It owns
// request decoding, tenant extraction, and the domain-error to status-code
// mapping; no business logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/gstxxx/cantina/internal/domain/customer"
	"github.com/gstxxx/cantina/internal/domain/ledger"
	"github.com/gstxxx/cantina/internal/domain/order"
	"github.com/gstxxx/cantina/internal/domain/product"
	"github.com/gstxxx/cantina/internal/domain/unit"
)

// Tenant and unit identifiers travel in headers; the handler converts them
// to explicit parameters so the domain stays free of transport concerns.
const (
	headerTenantID = "X-Tenant-ID"
	headerUnitID   = "X-Unit-ID"
)

var errMissingTenant = errors.New("missing " + headerTenantID + " header")

// Handler serves the JSON API.
type Handler struct {
	orders    *order.Service
	ledger    *ledger.Service
	customers customer.Repository
	products  product.Repository
	units     unit.Repository
}

// New constructs a Handler with the required domain dependencies.
func New(
	orders *order.Service,
	ledgerSvc *ledger.Service,
	customers customer.Repository,
	products product.Repository,
	units unit.Repository,
) *Handler {
	return &Handler{
		orders:    orders,
		ledger:    ledgerSvc,
		customers: customers,
		products:  products,
		units:     units,
	}
}

// Routes returns the API route table.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/orders", h.openOrder)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PATCH /api/orders/{id}", h.patchOrder)
	mux.HandleFunc("POST /api/orders/{id}/items", h.addItem)
	mux.HandleFunc("PATCH /api/orders/{id}/items/{itemID}", h.updateItem)
	mux.HandleFunc("DELETE /api/orders/{id}/items/{itemID}", h.removeItem)
	mux.HandleFunc("POST /api/orders/{id}/close", h.closeOrder)
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.cancelOrder)

	mux.HandleFunc("GET /api/customers", h.listCustomers)
	mux.HandleFunc("POST /api/customers", h.createCustomer)
	mux.HandleFunc("PATCH /api/customers/{id}", h.patchCustomer)
	mux.HandleFunc("GET /api/customers/{id}/balance", h.customerBalance)
	mux.HandleFunc("GET /api/customers/{id}/statement", h.customerStatement)
	mux.HandleFunc("GET /api/customers/{id}/entries", h.customerEntries)
	mux.HandleFunc("POST /api/customers/{id}/payments", h.registerPayment)
	mux.HandleFunc("POST /api/customers/{id}/adjustments", h.registerAdjustment)

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("POST /api/products", h.createProduct)
	mux.HandleFunc("GET /api/units", h.listUnits)
	mux.HandleFunc("POST /api/units", h.createUnit)

	return mux
}

// errorResponse is the wire shape of every error.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto the HTTP error taxonomy:
// invalid input 400, not found 404, invalid state / conflict 409,
// everything else 500 with the detail kept out of the response.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(ctx).Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

func statusFor(err error) int {
	var (
		qtyErr  *order.InvalidQuantityError
		itemErr *order.ItemNotFoundError
	)
	switch {
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, unit.ErrNotFound),
		errors.As(err, &itemErr):
		return http.StatusNotFound
	case errors.Is(err, order.ErrNotOpen),
		errors.Is(err, order.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &qtyErr),
		errors.Is(err, order.ErrCustomerRequired),
		errors.Is(err, order.ErrNegativeDiscount),
		errors.Is(err, order.ErrInvalidChannel),
		errors.Is(err, customer.ErrInactive),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidType),
		errors.Is(err, ledger.ErrInvalidMonth),
		errors.Is(err, errMissingTenant),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("malformed request body")

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}

// tenantFrom extracts the mandatory tenant ID header.
func tenantFrom(r *http.Request) (string, error) {
	t := r.Header.Get(headerTenantID)
	if t == "" {
		return "", errMissingTenant
	}
	return t, nil
}

// unitFrom extracts the optional unit ID header.
func unitFrom(r *http.Request) *string {
	if u := r.Header.Get(headerUnitID); u != "" {
		return &u
	}
	return nil
}
