package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

type CheckoutHandler struct {
	carts     CartOpener
	checkouts Checkouts
	timeout   time.Duration
}

func NewCheckoutHandler(carts CartOpener, checkouts Checkouts, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		carts:     carts,
		checkouts: checkouts,
		timeout:   timeout,
	}
}

type CheckoutResponseDTO struct {
	OrderID     string  `json:"order_id"`
	TotalAmount float64 `json:"total_amount"`
	Next        string  `json:"next"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var shipping domain.ShippingDetails
	if err := json.NewDecoder(r.Body).Decode(&shipping); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sessionID := getSessionID(r.Context())
	store, err := h.carts.Open(ctx, sessionID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	res, err := h.checkouts.For(sessionID, store).Submit(ctx, shipping)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		OrderID:     res.Order.ID,
		TotalAmount: res.Order.TotalAmount,
		Next:        res.Next,
	})
}
