package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gstxxx/cantina/internal/domain/customer"
	"github.com/gstxxx/cantina/internal/domain/money"
	"github.com/gstxxx/cantina/internal/domain/product"
	"github.com/gstxxx/cantina/internal/domain/unit"
)

type customerResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Notes  string `json:"notes,omitempty"`
	Active bool   `json:"active"`
}

func toCustomerResponse(c *customer.Customer) customerResponse {
	return customerResponse{ID: c.ID, Name: c.Name, Phone: c.Phone, Notes: c.Notes, Active: c.Active}
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	customers, err := h.customers.List(r.Context(), tenantID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	out := make([]customerResponse, len(customers))
	for i := range customers {
		out[i] = toCustomerResponse(&customers[i])
	}
	writeJSON(w, http.StatusOK, out)
}

type createCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req createCustomerRequest
	if err := decode(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if req.Name == "" {
		writeError(r.Context(), w, errBadRequest)
		return
	}

	c := &customer.Customer{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Name:     req.Name,
		Phone:    req.Phone,
		Notes:    req.Notes,
		Active:   true,
	}
	if err := h.customers.Create(r.Context(), c); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(c))
}

type patchCustomerRequest struct {
	Active *bool `json:"active"`
}

// patchCustomer toggles the active flag. Inactive customers keep their
// history and balance but can no longer receive charges or payments.
func (h *Handler) patchCustomer(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req patchCustomerRequest
	if err := decode(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if req.Active == nil {
		writeError(r.Context(), w, errBadRequest)
		return
	}

	id := r.PathValue("id")
	if err := h.customers.SetActive(r.Context(), tenantID, id, *req.Active); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	c, err := h.customers.Get(r.Context(), tenantID, id)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(c))
}

type productResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Active     bool   `json:"active"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	products, err := h.products.List(r.Context(), tenantID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = productResponse{ID: p.ID, Name: p.Name, PriceCents: p.PriceCents.Int64(), Active: p.Active}
	}
	writeJSON(w, http.StatusOK, out)
}

type createProductRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req createProductRequest
	if err := decode(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if req.Name == "" || req.PriceCents < 0 {
		writeError(r.Context(), w, errBadRequest)
		return
	}

	p := &product.Product{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Name:       req.Name,
		PriceCents: money.Cents(req.PriceCents),
		Active:     true,
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, productResponse{
		ID: p.ID, Name: p.Name, PriceCents: p.PriceCents.Int64(), Active: p.Active,
	})
}

type unitResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

func (h *Handler) listUnits(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	units, err := h.units.List(r.Context(), tenantID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	out := make([]unitResponse, len(units))
	for i, u := range units {
		out[i] = unitResponse{ID: u.ID, Name: u.Name, Active: u.Active}
	}
	writeJSON(w, http.StatusOK, out)
}

type createUnitRequest struct {
	Name string `json:"name"`
}

func (h *Handler) createUnit(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req createUnitRequest
	if err := decode(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if req.Name == "" {
		writeError(r.Context(), w, errBadRequest)
		return
	}

	u := &unit.Unit{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Name:     req.Name,
		Active:   true,
	}
	if err := h.units.Create(r.Context(), u); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, unitResponse{ID: u.ID, Name: u.Name, Active: u.Active})
}
