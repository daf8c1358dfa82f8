package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Carts     CartOpener
	Catalog   Catalog
	Checkouts Checkouts
	Orders    OrderHistory
	Auth      Auth
	Profiles  Profiles
	Log       *zap.Logger

	RequestTimeout time.Duration
	SecureCookies  bool
}

func NewRouter(d Deps) http.Handler {
	cartHandler := NewCartHandler(d.Carts, d.Catalog, d.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(d.Carts, d.Checkouts, d.RequestTimeout)
	ordersHandler := NewOrdersHandler(d.Orders, d.RequestTimeout)
	productHandler := NewProductHandler(d.Catalog, d.RequestTimeout)
	authHandler := NewAuthHandler(d.Auth, d.RequestTimeout)
	profileHandler := NewProfileHandler(d.Profiles, d.Auth, d.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(d.SecureCookies))

		r.Get("/categories", productHandler.Categories)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{id}", productHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(RequireAuth(d.Auth))
				r.Post("/", productHandler.Create)
				r.Put("/{id}", productHandler.Update)
				r.Delete("/{id}", productHandler.Delete)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Post("/checkout", checkoutHandler.Submit)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(d.Auth))
			r.Get("/orders", ordersHandler.ListOrders)
			r.Delete("/orders/{order_id}", ordersHandler.DeleteOrder)
			r.Get("/profile", profileHandler.Get)
			r.Put("/profile", profileHandler.Update)
			r.Delete("/profile", profileHandler.Delete)

			// user administration, gated like catalog admin
			r.Route("/users", func(r chi.Router) {
				r.Get("/", profileHandler.ListUsers)
				r.Post("/", profileHandler.CreateUser)
				r.Get("/{id}", profileHandler.GetUser)
				r.Put("/{id}", profileHandler.UpdateUser)
				r.Delete("/{id}", profileHandler.DeleteUser)
			})
		})
	})

	return r
}
