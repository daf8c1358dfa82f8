package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	orders  OrderHistory
	timeout time.Duration
}

func NewOrdersHandler(orders OrderHistory, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrderItemDTO struct {
	ProductID   domain.ItemID `json:"product_id"`
	ProductName string        `json:"product_name"`
	Quantity    int           `json:"quantity"`
	Price       float64       `json:"price"`
}

type ShippingDTO struct {
	Address string `json:"address"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

type OrderResponseDTO struct {
	ID          string         `json:"id"`
	TotalAmount float64        `json:"total_amount"`
	Items       []OrderItemDTO `json:"items"`
	Shipping    ShippingDTO    `json:"shipping"`
	CreatedAt   string         `json:"created_at"`
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	orders, err := h.orders.ListByUser(ctx, id.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// DELETE /api/v1/orders/{order_id}
func (h *OrdersHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, _ := getIdentity(r.Context())
	if err := h.orders.DeleteForUser(ctx, id.UserID, chi.URLParam(r, "order_id")); err != nil {
		handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func convertOrder(o domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID:   it.ProductID,
			ProductName: it.Name,
			Quantity:    it.Quantity,
			Price:       it.Price,
		})
	}

	return OrderResponseDTO{
		ID:          o.ID,
		TotalAmount: o.TotalAmount,
		Items:       items,
		Shipping: ShippingDTO{
			Address: o.ShippingDetails.Address,
			City:    o.ShippingDetails.City,
			ZipCode: o.ShippingDetails.ZipCode,
			Country: o.ShippingDetails.Country,
		},
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
