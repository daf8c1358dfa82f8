package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_storefront/internal/docstore"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/sony/gobreaker/v2"
)

type OrderRepository struct {
	docs docstore.Collection[domain.Order]
	cb   *gobreaker.CircuitBreaker[string]
}

// NewOrderRepository wraps order inserts in cb when it is non-nil.
func NewOrderRepository(docs docstore.Collection[domain.Order], cb *gobreaker.CircuitBreaker[string]) *OrderRepository {
	return &OrderRepository{docs: docs, cb: cb}
}

// Create inserts a new order document and returns the id the store assigned.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (string, error) {
	order.ID = ""
	if r.cb == nil {
		return r.docs.Create(ctx, order)
	}
	id, err := r.cb.Execute(func() (string, error) {
		return r.docs.Create(ctx, order)
	})
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	return id, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.docs.Find(ctx, docstore.Query{
		Field:      "userId",
		Equals:     userID,
		SortBy:     "createdAt",
		Descending: true,
	})
}

func (r *OrderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := r.docs.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return o, ErrOrderNotFound
	}
	return o, err
}

// DeleteForUser removes an order the user owns. Orders of other users look missing.
func (r *OrderRepository) DeleteForUser(ctx context.Context, userID, orderID string) error {
	o, err := r.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.UserID != userID {
		return ErrOrderNotFound
	}
	err = r.docs.Delete(ctx, orderID)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrOrderNotFound
	}
	return err
}
