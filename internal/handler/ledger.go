package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gstxxx/cantina/internal/domain/ledger"
	"github.com/gstxxx/cantina/internal/domain/money"
)

type entryResponse struct {
	ID          string           `json:"id"`
	CustomerID  string           `json:"customerId"`
	UnitID      *string          `json:"unitId,omitempty"`
	OrderID     *string          `json:"orderId,omitempty"`
	Type        ledger.EntryType `json:"type"`
	AmountCents int64            `json:"amountCents"`
	Description string           `json:"description,omitempty"`
	OccurredAt  time.Time        `json:"occurredAt"`
}

func toEntryResponse(e *ledger.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		CustomerID:  e.CustomerID,
		UnitID:      e.UnitID,
		OrderID:     e.OrderID,
		Type:        e.Type,
		AmountCents: e.AmountCents.Int64(),
		Description: e.Description,
		OccurredAt:  e.OccurredAt,
	}
}

func toEntryResponses(entries []ledger.Entry) []entryResponse {
	out := make([]entryResponse, len(entries))
	for i := range entries {
		out[i] = toEntryResponse(&entries[i])
	}
	return out
}

type balanceResponse struct {
	CustomerID   string `json:"customerId"`
	BalanceCents int64  `json:"balanceCents"`
}

func (h *Handler) customerBalance(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	customerID := r.PathValue("id")
	balance, err := h.ledger.Balance(r.Context(), tenantID, customerID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		CustomerID:   customerID,
		BalanceCents: balance.Int64(),
	})
}

type statementResponse struct {
	CustomerID         string          `json:"customerId"`
	Year               int             `json:"year"`
	Month              int             `json:"month"`
	Entries            []entryResponse `json:"entries"`
	TotalChargesCents  int64           `json:"totalChargesCents"`
	TotalPaymentsCents int64           `json:"totalPaymentsCents"`
	BalanceCents       int64           `json:"balanceCents"`
}

func (h *Handler) customerStatement(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	year, errYear := strconv.Atoi(r.URL.Query().Get("year"))
	month, errMonth := strconv.Atoi(r.URL.Query().Get("month"))
	if errYear != nil || errMonth != nil {
		writeError(r.Context(), w, errBadRequest)
		return
	}

	customerID := r.PathValue("id")
	st, err := h.ledger.MonthStatement(r.Context(), tenantID, customerID, year, month)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, statementResponse{
		CustomerID:         customerID,
		Year:               year,
		Month:              month,
		Entries:            toEntryResponses(st.Entries),
		TotalChargesCents:  st.TotalCharges.Int64(),
		TotalPaymentsCents: st.TotalPayments.Int64(),
		BalanceCents:       st.Balance.Int64(),
	})
}

func (h *Handler) customerEntries(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	customerID := r.PathValue("id")
	if _, err := h.customers.Get(r.Context(), tenantID, customerID); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	entries, err := h.ledger.Entries(r.Context(), tenantID, customerID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponses(entries))
}

type paymentRequest struct {
	AmountCents int64  `json:"amountCents"`
	Description string `json:"description"`
}

func (h *Handler) registerPayment(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req paymentRequest
	if err := decode(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	e, err := h.ledger.RegisterPayment(r.Context(), tenantID, r.PathValue("id"),
		money.Cents(req.AmountCents), ledger.AppendRequest{
			UnitID:      unitFrom(r),
			Description: req.Description,
		})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryResponse(e))
}

func (h *Handler) registerAdjustment(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req paymentRequest
	if err := decode(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	e, err := h.ledger.Append(r.Context(), tenantID, r.PathValue("id"),
		ledger.TypeAdjust, money.Cents(req.AmountCents), ledger.AppendRequest{
			UnitID:      unitFrom(r),
			Description: req.Description,
		})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryResponse(e))
}
