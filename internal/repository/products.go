package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fjod/go_storefront/internal/docstore"
	"github.com/fjod/go_storefront/internal/domain"
)

type ProductRepository struct {
	docs docstore.Collection[domain.CatalogItem]
}

func NewProductRepository(docs docstore.Collection[domain.CatalogItem]) *ProductRepository {
	return &ProductRepository{docs: docs}
}

// ProductUpdate carries the fields to change; nil fields are left alone.
type ProductUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.CatalogItem, error) {
	return r.docs.All(ctx)
}

func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]domain.CatalogItem, error) {
	return r.docs.Find(ctx, docstore.Query{Field: "category", Equals: category})
}

// Categories returns the distinct product categories in lexical order.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	products, err := r.docs.All(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (domain.CatalogItem, error) {
	p, err := r.docs.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return p, ErrProductNotFound
	}
	return p, err
}

func (r *ProductRepository) Create(ctx context.Context, p domain.CatalogItem) (string, error) {
	if err := validateProduct(p); err != nil {
		return "", err
	}
	p.ID = ""
	return r.docs.Create(ctx, p)
}

func (r *ProductRepository) Update(ctx context.Context, id string, u ProductUpdate) error {
	fields := make(map[string]interface{})
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return fmt.Errorf("%w: name must not be empty", ErrInvalidProduct)
		}
		fields["name"] = *u.Name
	}
	if u.Price != nil {
		if !domain.ValidPrice(*u.Price) {
			return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidProduct)
		}
		fields["price"] = *u.Price
	}
	if u.Category != nil {
		if strings.TrimSpace(*u.Category) == "" {
			return fmt.Errorf("%w: category must not be empty", ErrInvalidProduct)
		}
		fields["category"] = *u.Category
	}
	if u.Description != nil {
		if strings.TrimSpace(*u.Description) == "" {
			return fmt.Errorf("%w: description must not be empty", ErrInvalidProduct)
		}
		fields["description"] = *u.Description
	}
	if u.Image != nil {
		fields["image"] = *u.Image
	}
	if u.Stock != nil {
		if *u.Stock < 0 {
			return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
		}
		fields["stock"] = *u.Stock
	}

	err := r.docs.Update(ctx, id, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrProductNotFound
	}
	if errors.Is(err, docstore.ErrNoFields) {
		return fmt.Errorf("%w: nothing to update", ErrInvalidProduct)
	}
	return err
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	err := r.docs.Delete(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func validateProduct(p domain.CatalogItem) error {
	switch {
	case strings.TrimSpace(p.Name) == "" && strings.TrimSpace(p.Title) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Price == nil || !domain.ValidPrice(*p.Price):
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidProduct)
	case strings.TrimSpace(p.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidProduct)
	case strings.TrimSpace(p.Description) == "":
		return fmt.Errorf("%w: description is required", ErrInvalidProduct)
	case p.Stock != nil && *p.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return nil
}
