package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewProductHandler(catalog Catalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ProductsResponse struct {
	Products []domain.CatalogItem `json:"products"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

// GET /api/v1/products[?category=]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		products []domain.CatalogItem
		err      error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		products, err = h.catalog.ListByCategory(ctx, category)
	} else {
		products, err = h.catalog.List(ctx)
	}
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

// GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// GET /api/v1/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, categories)
}

// POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var p domain.CatalogItem
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	id, err := h.catalog.Create(ctx, p)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreatedResponse{ID: id})
}

// PUT /api/v1/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var u repository.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.catalog.Update(ctx, id, u); err != nil {
		handleError(w, r, err)
		return
	}

	p, err := h.catalog.Get(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DELETE /api/v1/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.catalog.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
