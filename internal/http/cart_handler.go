package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	carts   CartOpener
	catalog Catalog
	timeout time.Duration
}

func NewCartHandler(carts CartOpener, catalog Catalog, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: catalog,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID domain.ItemID `json:"product_id"`
	Quantity  *int          `json:"quantity,omitempty"`
}

type CartResponseDTO struct {
	Items        []domain.LineItem `json:"items"`
	TotalItems   int               `json:"total_items"`
	TotalPrice   float64           `json:"total_price"`
	DisplayTotal string            `json:"display_total"`
}

func cartResponse(snap domain.Snapshot) CartResponseDTO {
	return CartResponseDTO{
		Items:        snap.Items,
		TotalItems:   snap.ItemCount(),
		TotalPrice:   snap.RoundedTotal(),
		DisplayTotal: snap.DisplayTotal(),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := h.carts.Open(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store.Snapshot()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity <= 0 || quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	item, err := h.catalog.Get(ctx, req.ProductID.String())
	if err != nil {
		handleError(w, r, err)
		return
	}

	store, err := h.carts.Open(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := store.AddItem(ctx, item, quantity); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(store.Snapshot()))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	store, err := h.carts.Open(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := store.RemoveItem(ctx, domain.ItemID(productID)); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store.Snapshot()))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, err := h.carts.Open(ctx, getSessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := store.Clear(ctx); err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store.Snapshot()))
}

var _ CartOpener = (*cart.Manager)(nil)
