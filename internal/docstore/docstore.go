package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrNoFields  = errors.New("no fields to update")
	ErrDuplicate = errors.New("duplicate document")
)

// Names of the collections the storefront uses.
const (
	Products = "products"
	Orders   = "orders"
	Users    = "users"
)

// Query is an equality filter on one field with an optional sort.
// An empty Field matches every document.
type Query struct {
	Field      string
	Equals     interface{}
	SortBy     string
	Descending bool
	Limit      int64
}

// Collection is a typed document collection.
type Collection[T any] interface {
	// Create inserts doc and returns its id. The store assigns one when doc has none.
	Create(ctx context.Context, doc T) (string, error)
	Get(ctx context.Context, id string) (T, error)
	All(ctx context.Context) ([]T, error)
	Find(ctx context.Context, q Query) ([]T, error)
	// Update sets the given fields on one document.
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}
