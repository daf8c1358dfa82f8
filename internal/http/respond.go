package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/identity"
	"github.com/fjod/go_storefront/internal/repository"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{checkout.ErrNotLoggedIn, http.StatusUnauthorized, "not_logged_in"},
	{checkout.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
	{checkout.ErrInvalidCart, http.StatusUnprocessableEntity, "invalid_cart"},
	{checkout.ErrIncompleteShipping, http.StatusUnprocessableEntity, "incomplete_shipping"},
	{checkout.ErrSubmissionInFlight, http.StatusConflict, "submission_in_flight"},
	{checkout.ErrSubmissionFailed, http.StatusBadGateway, "submission_failed"},
	{cart.ErrInvalidCatalogItem, http.StatusUnprocessableEntity, "invalid_catalog_item"},
	{cart.ErrPersist, http.StatusServiceUnavailable, "cart_unavailable"},
	{cart.ErrNoSession, http.StatusBadRequest, "missing_session"},
	{identity.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{identity.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{identity.ErrWeakPassword, http.StatusBadRequest, "weak_password"},
	{identity.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{repository.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{repository.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{repository.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{repository.ErrInvalidProduct, http.StatusBadRequest, "invalid_product"},
	{repository.ErrInvalidUser, http.StatusBadRequest, "invalid_user"},
	{repository.ErrEmailTaken, http.StatusConflict, "email_taken"},
}

// handleError writes the response for err. Unknown errors become a 500 without details.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.target.Error()
			if m.status == http.StatusBadRequest || m.status == http.StatusUnprocessableEntity {
				msg = err.Error()
			}
			respondError(w, m.status, m.code, msg)
			return
		}
	}
	requestLogger(r).Error("request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
