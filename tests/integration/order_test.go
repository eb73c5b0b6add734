//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"regexp"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// openOrder opens a fresh order under the seeded tenant.
func openOrder(t *testing.T, body map[string]any) orderResponse {
	t.Helper()

	if _, ok := body["unitId"]; !ok {
		body["unitId"] = "unit-centro"
	}
	if _, ok := body["channel"]; !ok {
		body["channel"] = "COUNTER"
	}

	resp := doPost(t, "/api/orders", seededTenant, body)
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusCreated)
	return decodeJSON[orderResponse](t, resp)
}

func addItem(t *testing.T, orderID, productID string, qty int) orderItemResponse {
	t.Helper()

	resp := doPost(t, "/api/orders/"+orderID+"/items", seededTenant, map[string]any{
		"productId": productID,
		"qty":       qty,
	})
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusCreated)
	return decodeJSON[orderItemResponse](t, resp)
}

// newCustomer creates a dedicated customer so ledger assertions never see
// entries from other tests.
func newCustomer(t *testing.T, name string) customerResponse {
	t.Helper()

	resp := doPost(t, "/api/customers", seededTenant, map[string]any{"name": name})
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusCreated)
	return decodeJSON[customerResponse](t, resp)
}

func TestOpenOrder(t *testing.T) {
	o := openOrder(t, map[string]any{"channel": "TABLE"})

	if !uuidPattern.MatchString(o.ID) {
		t.Errorf("order ID %q is not a UUID", o.ID)
	}
	if o.Status != "OPEN" {
		t.Errorf("status: got %q, want OPEN", o.Status)
	}
	if o.TotalCents != 0 || len(o.Items) != 0 {
		t.Errorf("new order not empty: total=%d items=%d", o.TotalCents, len(o.Items))
	}
}

func TestAddItems_TotalsRecomputed(t *testing.T) {
	o := openOrder(t, map[string]any{})

	// Café coado 400 x2, Pão de queijo 650 x1.
	addItem(t, o.ID, "prod-cafe", 2)
	addItem(t, o.ID, "prod-pao-queijo", 1)

	resp := doGet(t, "/api/orders/"+o.ID, seededTenant)
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)

	got := decodeJSON[orderResponse](t, resp)
	if got.SubtotalCents != 1450 {
		t.Errorf("subtotal: got %d, want 1450", got.SubtotalCents)
	}
	if got.TotalCents != 1450 {
		t.Errorf("total: got %d, want 1450", got.TotalCents)
	}
}

func TestDiscountAppliedAndFloored(t *testing.T) {
	o := openOrder(t, map[string]any{})
	addItem(t, o.ID, "prod-cafe", 1)

	resp := doRequest(t, http.MethodPatch, "/api/orders/"+o.ID, seededTenant, map[string]any{
		"discountCents": 10_000,
	})
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)

	got := decodeJSON[orderResponse](t, resp)
	if got.SubtotalCents != 400 {
		t.Errorf("subtotal: got %d, want 400", got.SubtotalCents)
	}
	if got.TotalCents != 0 {
		t.Errorf("total: got %d, want 0", got.TotalCents)
	}
}

func TestAddItem_PinsPriceSnapshot(t *testing.T) {
	o := openOrder(t, map[string]any{})
	it := addItem(t, o.ID, "prod-coxinha", 3)

	if it.PriceCents != 800 {
		t.Errorf("price snapshot: got %d, want 800", it.PriceCents)
	}
	if it.TotalCents != 2400 {
		t.Errorf("line total: got %d, want 2400", it.TotalCents)
	}
}

func TestCloseOnCredit_WritesCharge(t *testing.T) {
	c := newCustomer(t, "Cliente Fiado A")
	o := openOrder(t, map[string]any{"channel": "TABLE", "customerId": c.ID})
	addItem(t, o.ID, "prod-prato-dia", 1)

	resp := doPost(t, "/api/orders/"+o.ID+"/close", seededTenant, map[string]any{"onCredit": true})
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)

	closed := decodeJSON[orderResponse](t, resp)
	if closed.Status != "CLOSED" || !closed.OnCredit {
		t.Fatalf("close: status=%q onCredit=%v", closed.Status, closed.OnCredit)
	}
	if closed.PaidType != nil || closed.PaidCents != nil {
		t.Error("credit close must not record a tender")
	}

	entriesResp := doGet(t, "/api/customers/"+c.ID+"/entries", seededTenant)
	defer entriesResp.Body.Close()
	wantStatus(t, entriesResp, http.StatusOK)

	entries := decodeJSON[[]entryResponse](t, entriesResp)
	if len(entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(entries))
	}
	if entries[0].Type != "CHARGE" || entries[0].AmountCents != 2200 {
		t.Errorf("charge: type=%q amount=%d, want CHARGE 2200", entries[0].Type, entries[0].AmountCents)
	}
	if entries[0].OrderID == nil || *entries[0].OrderID != o.ID {
		t.Error("charge not linked to the closed order")
	}
}

func TestClosePaid_DefaultsToTotal(t *testing.T) {
	o := openOrder(t, map[string]any{})
	addItem(t, o.ID, "prod-pudim", 2)

	resp := doPost(t, "/api/orders/"+o.ID+"/close", seededTenant, map[string]any{"paidType": "CASH"})
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)

	closed := decodeJSON[orderResponse](t, resp)
	if closed.PaidCents == nil || *closed.PaidCents != 1500 {
		t.Fatalf("paidCents: got %v, want 1500", closed.PaidCents)
	}
}

func TestClose_Twice(t *testing.T) {
	o := openOrder(t, map[string]any{})
	addItem(t, o.ID, "prod-cafe", 1)

	resp := doPost(t, "/api/orders/"+o.ID+"/close", seededTenant, map[string]any{})
	resp.Body.Close()

	resp = doPost(t, "/api/orders/"+o.ID+"/close", seededTenant, map[string]any{})
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusConflict)
}

func TestCreditClose_WithoutCustomer(t *testing.T) {
	o := openOrder(t, map[string]any{})
	addItem(t, o.ID, "prod-cafe", 1)

	resp := doPost(t, "/api/orders/"+o.ID+"/close", seededTenant, map[string]any{"onCredit": true})
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusBadRequest)

	// Order stays OPEN and no ledger entry was written.
	getResp := doGet(t, "/api/orders/"+o.ID, seededTenant)
	defer getResp.Body.Close()
	got := decodeJSON[orderResponse](t, getResp)
	if got.Status != "OPEN" {
		t.Errorf("status after failed close: got %q, want OPEN", got.Status)
	}
}

func TestCancel_BlocksFurtherMutations(t *testing.T) {
	o := openOrder(t, map[string]any{})

	resp := doPost(t, "/api/orders/"+o.ID+"/cancel", seededTenant, nil)
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)

	itemResp := doPost(t, "/api/orders/"+o.ID+"/items", seededTenant, map[string]any{
		"productId": "prod-cafe", "qty": 1,
	})
	defer itemResp.Body.Close()
	wantStatus(t, itemResp, http.StatusConflict)
}

func TestOrder_TenantIsolation(t *testing.T) {
	o := openOrder(t, map[string]any{})

	resp := doGet(t, "/api/orders/"+o.ID, "other-tenant")
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusNotFound)
}

func TestOrder_NotFound(t *testing.T) {
	resp := doGet(t, "/api/orders/00000000-0000-0000-0000-000000000000", seededTenant)
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusNotFound)

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusNotFound {
		t.Errorf("error code: got %d, want 404", body.Code)
	}
}

func TestUpdateItemQty(t *testing.T) {
	o := openOrder(t, map[string]any{})
	it := addItem(t, o.ID, "prod-cafe", 1)

	resp := doRequest(t, http.MethodPatch,
		fmt.Sprintf("/api/orders/%s/items/%s", o.ID, it.ID), seededTenant,
		map[string]any{"qty": 5})
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)

	updated := decodeJSON[orderItemResponse](t, resp)
	if updated.TotalCents != 2000 {
		t.Errorf("line total: got %d, want 2000", updated.TotalCents)
	}
}

func TestRemoveItem(t *testing.T) {
	o := openOrder(t, map[string]any{})
	it := addItem(t, o.ID, "prod-cafe", 2)

	resp := doRequest(t, http.MethodDelete,
		fmt.Sprintf("/api/orders/%s/items/%s", o.ID, it.ID), seededTenant, nil)
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)

	got := decodeJSON[orderResponse](t, resp)
	if len(got.Items) != 0 || got.TotalCents != 0 {
		t.Errorf("after remove: items=%d total=%d", len(got.Items), got.TotalCents)
	}
}
