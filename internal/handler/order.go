package handler

import (
	"net/http"
	"time"

	"github.com/gstxxx/cantina/internal/domain/money"
	"github.com/gstxxx/cantina/internal/domain/order"
)

type orderResponse struct {
	ID            string              `json:"id"`
	UnitID        string              `json:"unitId"`
	TableID       *string             `json:"tableId,omitempty"`
	CustomerID    *string             `json:"customerId,omitempty"`
	Channel       order.Channel       `json:"channel"`
	Status        order.Status        `json:"status"`
	Notes         string              `json:"notes,omitempty"`
	Items         []orderItemResponse `json:"items"`
	SubtotalCents int64               `json:"subtotalCents"`
	DiscountCents int64               `json:"discountCents"`
	TotalCents    int64               `json:"totalCents"`
	OnCredit      bool                `json:"onCredit"`
	PaidType      *order.TenderType   `json:"paidType,omitempty"`
	PaidCents     *int64              `json:"paidCents,omitempty"`
	OpenedAt      time.Time           `json:"openedAt"`
	ClosedAt      *time.Time          `json:"closedAt,omitempty"`
}

type orderItemResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"productId"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"priceCents"`
	TotalCents int64  `json:"totalCents"`
	Notes      string `json:"notes,omitempty"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i := range o.Items {
		items[i] = toItemResponse(&o.Items[i])
	}

	resp := orderResponse{
		ID:            o.ID,
		UnitID:        o.UnitID,
		TableID:       o.TableID,
		CustomerID:    o.CustomerID,
		Channel:       o.Channel,
		Status:        o.Status,
		Notes:         o.Notes,
		Items:         items,
		SubtotalCents: o.SubtotalCents.Int64(),
		DiscountCents: o.DiscountCents.Int64(),
		TotalCents:    o.TotalCents.Int64(),
		OnCredit:      o.OnCredit,
		PaidType:      o.PaidType,
		OpenedAt:      o.OpenedAt,
		ClosedAt:      o.ClosedAt,
	}
	if o.PaidCents != nil {
		v := o.PaidCents.Int64()
		resp.PaidCents = &v
	}
	return resp
}

func toItemResponse(it *order.Item) orderItemResponse {
	return orderItemResponse{
		ID:         it.ID,
		ProductID:  it.ProductID,
		Qty:        it.Qty,
		PriceCents: it.PriceCents.Int64(),
		TotalCents: it.TotalCents.Int64(),
		Notes:      it.Notes,
	}
}

type openOrderRequest struct {
	UnitID     string        `json:"unitId"`
	Channel    order.Channel `json:"channel"`
	TableID    *string       `json:"tableId"`
	CustomerID *string       `json:"customerId"`
	Notes      string        `json:"notes"`
}

func (h *Handler) openOrder(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req openOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if req.UnitID == "" {
		if u := unitFrom(r); u != nil {
			req.UnitID = *u
		}
	}

	o, err := h.orders.Open(r.Context(), tenantID, order.OpenRequest{
		UnitID:     req.UnitID,
		Channel:    req.Channel,
		TableID:    req.TableID,
		CustomerID: req.CustomerID,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	o, err := h.orders.Get(r.Context(), tenantID, r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type patchOrderRequest struct {
	TableID       *string        `json:"tableId"`
	CustomerID    *string        `json:"customerId"`
	Channel       *order.Channel `json:"channel"`
	Notes         *string        `json:"notes"`
	DiscountCents *int64         `json:"discountCents"`
}

func (h *Handler) patchOrder(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req patchOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	patch := order.FieldPatch{
		TableID:    req.TableID,
		CustomerID: req.CustomerID,
		Channel:    req.Channel,
		Notes:      req.Notes,
	}
	if req.DiscountCents != nil {
		d := money.Cents(*req.DiscountCents)
		patch.DiscountCents = &d
	}

	o, err := h.orders.SetFields(r.Context(), tenantID, r.PathValue("id"), patch)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
	Notes     string `json:"notes"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req addItemRequest
	if err := decode(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	it, err := h.orders.AddItem(r.Context(), tenantID, r.PathValue("id"), order.AddItemRequest{
		ProductID: req.ProductID,
		Qty:       req.Qty,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemResponse(it))
}

type updateItemRequest struct {
	Qty int `json:"qty"`
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req updateItemRequest
	if err := decode(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	it, err := h.orders.UpdateItemQty(r.Context(), tenantID, r.PathValue("id"), r.PathValue("itemID"), req.Qty)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(it))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	o, err := h.orders.RemoveItem(r.Context(), tenantID, r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type closeOrderRequest struct {
	OnCredit  bool              `json:"onCredit"`
	PaidType  *order.TenderType `json:"paidType"`
	PaidCents *int64            `json:"paidCents"`
}

func (h *Handler) closeOrder(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var req closeOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	closeReq := order.CloseRequest{
		OnCredit: req.OnCredit,
		PaidType: req.PaidType,
	}
	if req.PaidCents != nil {
		p := money.Cents(*req.PaidCents)
		closeReq.PaidCents = &p
	}

	o, err := h.orders.Close(r.Context(), tenantID, r.PathValue("id"), closeReq)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantFrom(r)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	o, err := h.orders.Cancel(r.Context(), tenantID, r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
