//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func customerBalance(t *testing.T, customerID string) int64 {
	t.Helper()

	resp := doGet(t, "/api/customers/"+customerID+"/balance", seededTenant)
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)
	return decodeJSON[balanceResponse](t, resp).BalanceCents
}

func TestBalance_FoldsFullHistory(t *testing.T) {
	c := newCustomer(t, "Cliente Fiado B")

	// CHARGE 1000 via credit close (prod-suco-laranja 1000 x1).
	o := openOrder(t, map[string]any{"channel": "TABLE", "customerId": c.ID})
	addItem(t, o.ID, "prod-suco-laranja", 1)
	resp := doPost(t, "/api/orders/"+o.ID+"/close", seededTenant, map[string]any{"onCredit": true})
	resp.Body.Close()

	// PAYMENT 400, ADJUST 100.
	resp = doPost(t, "/api/customers/"+c.ID+"/payments", seededTenant, map[string]any{
		"amountCents": 400, "description": "parcial",
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = doPost(t, "/api/customers/"+c.ID+"/adjustments", seededTenant, map[string]any{
		"amountCents": 100, "description": "cortesia",
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	if got := customerBalance(t, c.ID); got != 500 {
		t.Errorf("balance: got %d, want 500", got)
	}
}

func TestBalance_CanGoNegative(t *testing.T) {
	c := newCustomer(t, "Cliente Fiado C")

	resp := doPost(t, "/api/customers/"+c.ID+"/payments", seededTenant, map[string]any{
		"amountCents": 300, "description": "adiantamento",
	})
	wantStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	if got := customerBalance(t, c.ID); got != -300 {
		t.Errorf("balance: got %d, want -300", got)
	}
}

func TestPayment_Validation(t *testing.T) {
	c := newCustomer(t, "Cliente Fiado D")

	resp := doPost(t, "/api/customers/"+c.ID+"/payments", seededTenant, map[string]any{
		"amountCents": 0,
	})
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusBadRequest)

	resp2 := doPost(t, "/api/customers/nonexistent/payments", seededTenant, map[string]any{
		"amountCents": 100,
	})
	defer resp2.Body.Close()
	wantStatus(t, resp2, http.StatusNotFound)
}

func TestStatement_CurrentMonth(t *testing.T) {
	c := newCustomer(t, "Cliente Fiado E")

	o := openOrder(t, map[string]any{"channel": "TABLE", "customerId": c.ID})
	addItem(t, o.ID, "prod-misto", 2)
	resp := doPost(t, "/api/orders/"+o.ID+"/close", seededTenant, map[string]any{"onCredit": true})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	now := time.Now().UTC()
	path := fmt.Sprintf("/api/customers/%s/statement?year=%d&month=%d", c.ID, now.Year(), int(now.Month()))
	stResp := doGet(t, path, seededTenant)
	defer stResp.Body.Close()
	wantStatus(t, stResp, http.StatusOK)

	st := decodeJSON[statementResponse](t, stResp)
	if st.TotalChargesCents != 1900 {
		t.Errorf("charges: got %d, want 1900", st.TotalChargesCents)
	}
	if st.BalanceCents != 1900 {
		t.Errorf("period balance: got %d, want 1900", st.BalanceCents)
	}
	if len(st.Entries) != 1 {
		t.Errorf("entries: got %d, want 1", len(st.Entries))
	}
}

func TestStatement_InvalidMonth(t *testing.T) {
	c := newCustomer(t, "Cliente Fiado F")

	resp := doGet(t, "/api/customers/"+c.ID+"/statement?year=2025&month=13", seededTenant)
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusBadRequest)
}

func TestEntries_AscendingOrder(t *testing.T) {
	c := newCustomer(t, "Cliente Fiado G")

	for _, amount := range []int64{100, 200, 300} {
		resp := doPost(t, "/api/customers/"+c.ID+"/payments", seededTenant, map[string]any{
			"amountCents": amount,
		})
		wantStatus(t, resp, http.StatusCreated)
		resp.Body.Close()
	}

	resp := doGet(t, "/api/customers/"+c.ID+"/entries", seededTenant)
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)

	entries := decodeJSON[[]entryResponse](t, resp)
	if len(entries) != 3 {
		t.Fatalf("entries: got %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].OccurredAt.Before(entries[i-1].OccurredAt) {
			t.Errorf("entries out of order at %d", i)
		}
	}
}
