package httpapi

import (
	"net/http"
)

type ordersResponse struct {
	Success bool            `json:"success"`
	Orders  []orderResource `json:"orders"`
}

type orderPlaced struct {
	Order orderResource `json:"order"`
}

// ListOrders only ever returns the caller's own orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), currentUser(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]orderResource, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderResource(o))
	}
	writeJSON(w, http.StatusOK, ordersResponse{Success: true, Orders: out})
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !bind(w, r, &req) {
		return
	}

	o, err := h.orders.Place(r.Context(), currentUser(r).ID, req.lines())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, orderPlaced{Order: newOrderResource(o)}, "Thank you for the order!")
}
