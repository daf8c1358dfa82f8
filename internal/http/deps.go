package http

import (
	"context"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/identity"
	"github.com/fjod/go_storefront/internal/repository"
)

type CartOpener interface {
	Open(ctx context.Context, sessionID string) (*cart.Store, error)
}

type Catalog interface {
	List(ctx context.Context) ([]domain.CatalogItem, error)
	ListByCategory(ctx context.Context, category string) ([]domain.CatalogItem, error)
	Categories(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (domain.CatalogItem, error)
	Create(ctx context.Context, p domain.CatalogItem) (string, error)
	Update(ctx context.Context, id string, u repository.ProductUpdate) error
	Delete(ctx context.Context, id string) error
}

type Checkouts interface {
	For(sessionID string, c checkout.Cart) *checkout.Orchestrator
}

type OrderHistory interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	DeleteForUser(ctx context.Context, userID, orderID string) error
}

type Auth interface {
	Register(ctx context.Context, sessionID string, reg identity.Registration) (identity.Identity, error)
	SignIn(ctx context.Context, sessionID, email, password string) (identity.Identity, error)
	CreateUser(ctx context.Context, reg identity.Registration) (identity.Identity, error)
	SignOut(sessionID string)
	SignOutUser(userID string)
	Current(sessionID string) (identity.Identity, bool)
}

type Profiles interface {
	List(ctx context.Context) ([]domain.UserProfile, error)
	Get(ctx context.Context, id string) (domain.UserProfile, error)
	UpdateProfile(ctx context.Context, id string, u repository.ProfileUpdate) (domain.UserProfile, error)
	Delete(ctx context.Context, id string) error
}
