package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/kasuwaapp/kasuwa/internal/db"
	"github.com/kasuwaapp/kasuwa/internal/models"
	"github.com/kasuwaapp/kasuwa/internal/services"
)

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req struct {
		Items []struct {
			ProductID uuid.UUID `json:"product_id"`
			Quantity  int       `json:"quantity"`
		} `json:"items"`
		ShippingAddress models.ShippingAddress `json:"shipping_address"`
		PaymentMethod   string                 `json:"payment_method"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	input := services.CreateOrderInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, services.CreateOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.orderService.CreateOrder(r.Context(), user.ID, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, order)
}

func (h *Handlers) MyOrders(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	orders, err := h.orderService.ListUserOrders(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*db.Order{}
	}
	h.writeJSON(w, r, http.StatusOK, orders)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListAllOrders(r.Context(), listLimit(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*db.Order{}
	}
	h.writeJSON(w, r, http.StatusOK, orders)
}

// GetOrder returns a single order to its owner or to an admin.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	orderID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if order.UserID != user.ID && !user.IsAdmin {
		h.writeError(w, r, fmt.Errorf("%w: not your order", errForbidden))
		return
	}
	h.writeJSON(w, r, http.StatusOK, order)
}

// PayOrder reconciles a gateway reference against the order.
func (h *Handlers) PayOrder(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	orderID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req struct {
		Reference string `json:"reference"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Reference == "" {
		h.writeError(w, r, fmt.Errorf("%w: reference is required", errBadRequest))
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if order.UserID != user.ID && !user.IsAdmin {
		h.writeError(w, r, fmt.Errorf("%w: not your order", errForbidden))
		return
	}

	settled, err := h.orderService.MarkPaid(r.Context(), orderID, req.Reference)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, settled)
}

func (h *Handlers) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.orderService.MarkDelivered(r.Context(), orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, order)
}

func (h *Handlers) TotalOrders(w http.ResponseWriter, r *http.Request) {
	counts, err := h.adminService.OrderCounts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, counts)
}

func (h *Handlers) TotalSales(w http.ResponseWriter, r *http.Request) {
	total, err := h.adminService.TotalSales(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, total)
}

func (h *Handlers) TotalSalesByDate(w http.ResponseWriter, r *http.Request) {
	sales, err := h.adminService.SalesByDay(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if sales == nil {
		sales = []db.DailySales{}
	}
	h.writeJSON(w, r, http.StatusOK, sales)
}
