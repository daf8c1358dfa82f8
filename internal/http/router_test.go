package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/docstore"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/identity"
	"github.com/fjod/go_storefront/internal/repository"
	"github.com/fjod/go_storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	handler     http.Handler
	productDocs *docstore.MemoryCollection[domain.CatalogItem]
	products    *repository.ProductRepository
	orders      *repository.OrderRepository
	carts       *cart.Manager
}

type failingWriter struct{}

func (failingWriter) Create(context.Context, domain.Order) (string, error) {
	return "", errors.New("document store unreachable")
}

func newTestEnv(t *testing.T, writer checkout.OrderWriter) *testEnv {
	t.Helper()
	log := zap.NewNop()

	productDocs := docstore.NewMemoryCollection[domain.CatalogItem](docstore.Products)
	products := repository.NewProductRepository(productDocs)
	orders := repository.NewOrderRepository(docstore.NewMemoryCollection[domain.Order](docstore.Orders), nil)
	users := repository.NewUserRepository(docstore.NewMemoryCollection[domain.UserProfile](docstore.Users))

	auth := identity.NewProvider(users, time.Hour, log)
	t.Cleanup(auth.Close)
	carts := cart.NewManager(session.NewMemoryStore(time.Hour), log, 0)
	t.Cleanup(carts.Close)

	if writer == nil {
		writer = orders
	}
	checkouts := checkout.NewService(auth, writer, nil, time.Second, log)

	return &testEnv{
		handler: NewRouter(Deps{
			Carts:          carts,
			Catalog:        products,
			Checkouts:      checkouts,
			Orders:         orders,
			Auth:           auth,
			Profiles:       users,
			Log:            log,
			RequestTimeout: 5 * time.Second,
		}),
		productDocs: productDocs,
		products:    products,
		orders:      orders,
		carts:       carts,
	}
}

func (e *testEnv) do(t *testing.T, method, path, sessionID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedProduct(t *testing.T, name string, price float64, category string) string {
	t.Helper()
	id, err := e.products.Create(context.Background(), domain.CatalogItem{
		Name:        name,
		Price:       &price,
		Category:    category,
		Description: name + " description",
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) register(t *testing.T, sessionID, email string) identity.Identity {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", sessionID, RegisterRequestDTO{Email: email, Password: "secret1", Name: "Test User"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var id identity.Identity
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&id))
	return id
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

var testShipping = domain.ShippingDetails{Address: " 1 Main St", City: "Springfield", ZipCode: "12345", Country: "US "}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestSession_MintedWhenMissing(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sid := rec.Header().Get(SessionHeader)
	assert.NotEmpty(t, sid)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, sid, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSession_CookieIsHonoured(t *testing.T) {
	env := newTestEnv(t, nil)
	productID := env.seedProduct(t, "Mug", 8, "kitchen")

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", "via-header", AddItemRequestDTO{ProductID: domain.ItemID(productID)})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "via-header"})
	got := httptest.NewRecorder()
	env.handler.ServeHTTP(got, req)

	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, 1, decode[CartResponseDTO](t, got).TotalItems)
}

func TestCart_AddAggregateRemove(t *testing.T) {
	env := newTestEnv(t, nil)
	productID := env.seedProduct(t, "Test Product", 29.99, "electronics")

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", AddItemRequestDTO{ProductID: domain.ItemID(productID)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", `{"product_id":"`+productID+`","quantity":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[CartResponseDTO](t, rec)
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Items[0].Quantity)
	assert.Equal(t, 2, body.TotalItems)
	assert.Equal(t, 59.98, body.TotalPrice)
	assert.Equal(t, "59.98", body.DisplayTotal)

	// carts are per session
	other := decode[CartResponseDTO](t, env.do(t, http.MethodGet, "/api/v1/cart", "s2", nil))
	assert.Empty(t, other.Items)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/"+productID, "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[CartResponseDTO](t, rec).Items)

	rec = env.do(t, http.MethodDelete, "/api/v1/cart/items/unknown", "s1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCart_Clear(t *testing.T) {
	env := newTestEnv(t, nil)
	productID := env.seedProduct(t, "Mug", 8, "kitchen")

	env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", AddItemRequestDTO{ProductID: domain.ItemID(productID)})
	rec := env.do(t, http.MethodDelete, "/api/v1/cart", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[CartResponseDTO](t, rec)
	assert.Empty(t, body.Items)
	assert.Equal(t, "0.00", body.DisplayTotal)
}

func TestCart_AddItemErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	productID := env.seedProduct(t, "Mug", 8, "kitchen")
	p := 3.0
	brokenID, err := env.productDocs.Create(context.Background(), domain.CatalogItem{Name: "No description", Price: &p, Category: "misc"})
	require.NoError(t, err)

	cases := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"invalid json", `{"product_id":`, http.StatusBadRequest, "invalid_request"},
		{"missing product", `{"quantity":1}`, http.StatusBadRequest, "invalid_product_id"},
		{"bad quantity", `{"product_id":"` + productID + `","quantity":0}`, http.StatusBadRequest, "invalid_quantity"},
		{"unknown product", `{"product_id":"nope"}`, http.StatusNotFound, "product_not_found"},
		{"invalid catalog item", `{"product_id":"` + brokenID + `"}`, http.StatusUnprocessableEntity, "invalid_catalog_item"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, decode[ErrorResponse](t, rec).Code)
		})
	}

	assert.Empty(t, decode[CartResponseDTO](t, env.do(t, http.MethodGet, "/api/v1/cart", "s1", nil)).Items)
}

func TestCheckout_Flow(t *testing.T) {
	env := newTestEnv(t, nil)
	productID := env.seedProduct(t, "Test Product", 29.99, "electronics")

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", "s1", testShipping)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "not_logged_in", decode[ErrorResponse](t, rec).Code)

	user := env.register(t, "s1", "buyer@example.com")

	rec = env.do(t, http.MethodPost, "/api/v1/checkout", "s1", testShipping)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errBody := decode[ErrorResponse](t, rec)
	assert.Equal(t, "empty_cart", errBody.Code)
	assert.Equal(t, "cart is empty", errBody.Error)

	env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", AddItemRequestDTO{ProductID: domain.ItemID(productID)})

	rec = env.do(t, http.MethodPost, "/api/v1/checkout", "s1", domain.ShippingDetails{Address: "1 Main St"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "incomplete_shipping", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/v1/checkout", "s1", testShipping)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[CheckoutResponseDTO](t, rec)
	assert.NotEmpty(t, res.OrderID)
	assert.Equal(t, 29.99, res.TotalAmount)
	assert.Equal(t, "/", res.Next)

	assert.Empty(t, decode[CartResponseDTO](t, env.do(t, http.MethodGet, "/api/v1/cart", "s1", nil)).Items)

	orders, err := env.orders.ListByUser(context.Background(), user.UserID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 29.99, orders[0].TotalAmount)
	assert.Equal(t, "1 Main St", orders[0].ShippingDetails.Address)
	assert.Equal(t, "US", orders[0].ShippingDetails.Country)
}

func TestCheckout_StoreFailure(t *testing.T) {
	env := newTestEnv(t, failingWriter{})
	productID := env.seedProduct(t, "Test Product", 29.99, "electronics")
	env.register(t, "s1", "buyer@example.com")
	env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", AddItemRequestDTO{ProductID: domain.ItemID(productID)})

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", "s1", testShipping)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "submission_failed", body.Code)
	assert.NotContains(t, body.Error, "unreachable")

	assert.Len(t, decode[CartResponseDTO](t, env.do(t, http.MethodGet, "/api/v1/cart", "s1", nil)).Items, 1)
}

func TestOrders_ListAndDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	productID := env.seedProduct(t, "Test Product", 10, "electronics")

	rec := env.do(t, http.MethodGet, "/api/v1/orders", "s1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.register(t, "s1", "buyer@example.com")
	for i := 0; i < 2; i++ {
		env.do(t, http.MethodPost, "/api/v1/cart/items", "s1", AddItemRequestDTO{ProductID: domain.ItemID(productID)})
		require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/checkout", "s1", testShipping).Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/orders", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[[]OrderResponseDTO](t, rec)
	require.Len(t, orders, 2)
	assert.Equal(t, "Test Product", orders[0].Items[0].ProductName)
	assert.Equal(t, "12345", orders[0].Shipping.ZipCode)

	env.register(t, "s2", "other@example.com")
	rec = env.do(t, http.MethodDelete, "/api/v1/orders/"+orders[0].ID, "s2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/orders/"+orders[0].ID, "s1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, decode[[]OrderResponseDTO](t, env.do(t, http.MethodGet, "/api/v1/orders", "s1", nil)), 1)
}

func TestProducts_PublicAndAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	laptop := env.seedProduct(t, "Laptop", 999, "electronics")
	env.seedProduct(t, "Tee", 15, "clothing")

	rec := env.do(t, http.MethodGet, "/api/v1/products", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ProductsResponse](t, rec).Products, 2)

	rec = env.do(t, http.MethodGet, "/api/v1/products?category=clothing", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clothing := decode[ProductsResponse](t, rec).Products
	require.Len(t, clothing, 1)
	assert.Equal(t, "Tee", clothing[0].Name)

	rec = env.do(t, http.MethodGet, "/api/v1/categories", "s1", nil)
	assert.Equal(t, []string{"clothing", "electronics"}, decode[[]string](t, rec))

	rec = env.do(t, http.MethodGet, "/api/v1/products/"+laptop, "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ItemID(laptop), decode[domain.CatalogItem](t, rec).ID)

	rec = env.do(t, http.MethodGet, "/api/v1/products/missing", "s1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	newProduct := `{"name":"Phone","price":499,"category":"electronics","description":"small"}`
	rec = env.do(t, http.MethodPost, "/api/v1/products", "s1", newProduct)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.register(t, "s1", "admin@example.com")
	rec = env.do(t, http.MethodPost, "/api/v1/products", "s1", newProduct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[CreatedResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/v1/products", "s1", `{"name":"Broken","category":"x","description":"y"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_product", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPut, "/api/v1/products/"+created.ID, "s1", `{"price":449.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 449.5, *decode[domain.CatalogItem](t, rec).Price)

	rec = env.do(t, http.MethodDelete, "/api/v1/products/"+created.ID, "s1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/products/"+created.ID, "s1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuth_Endpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/auth/me", "s1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	registered := env.register(t, "s1", "ann@example.com")

	rec = env.do(t, http.MethodPost, "/api/v1/auth/register", "s2", RegisterRequestDTO{Email: "ann@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/auth/register", "s2", RegisterRequestDTO{Email: "bob@example.com", Password: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "weak_password", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, registered.UserID, decode[identity.Identity](t, rec).UserID)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/logout", "s1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", "s1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "s1", LoginRequestDTO{Email: "ann@example.com", Password: "wrong!!"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "s1", LoginRequestDTO{Email: "ann@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, registered.UserID, decode[identity.Identity](t, rec).UserID)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/profile", "s1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.register(t, "s1", "ann@example.com")

	rec = env.do(t, http.MethodGet, "/api/v1/profile", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.Equal(t, "ann@example.com", decode[domain.UserProfile](t, rec).Email)

	rec = env.do(t, http.MethodPut, "/api/v1/profile", "s1", `{"name":"Ann B","address":"2 Side St"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[domain.UserProfile](t, rec)
	assert.Equal(t, "Ann B", profile.Name)
	assert.Equal(t, "2 Side St", profile.Address)
}

func TestProfile_EmailIsNotSelfService(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "s1", "ann@example.com")

	rec := env.do(t, http.MethodPut, "/api/v1/profile", "s1", `{"email":"other@example.com","name":"Ann"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ann@example.com", decode[domain.UserProfile](t, rec).Email)
}

func TestProfile_DeleteSignsOut(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "s1", "ann@example.com")
	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "s2", LoginRequestDTO{Email: "ann@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/profile", "s1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	for _, sid := range []string{"s1", "s2"} {
		rec = env.do(t, http.MethodGet, "/api/v1/auth/me", sid, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, sid)
	}
	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "s1", LoginRequestDTO{Email: "ann@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsers_Admin(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/users", "anon", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/users/whatever", "anon", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.register(t, "admin", "admin@example.com")

	rec = env.do(t, http.MethodPost, "/api/v1/users", "admin", RegisterRequestDTO{Email: "bob@example.com", Password: "secret1", Name: "Bob"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bob := decode[identity.Identity](t, rec)
	assert.Equal(t, "bob@example.com", bob.Email)

	// creating a user does not change who is signed in
	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@example.com", decode[identity.Identity](t, rec).Email)

	rec = env.do(t, http.MethodPost, "/api/v1/users", "admin", RegisterRequestDTO{Email: "bob@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/users", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[UsersResponse](t, rec).Users, 2)

	rec = env.do(t, http.MethodGet, "/api/v1/users/"+bob.UserID, "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bob", decode[domain.UserProfile](t, rec).Name)

	rec = env.do(t, http.MethodPut, "/api/v1/users/"+bob.UserID, "admin", `{"email":"Robert@Example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "robert@example.com", decode[domain.UserProfile](t, rec).Email)

	rec = env.do(t, http.MethodPut, "/api/v1/users/"+bob.UserID, "admin", `{"email":"admin@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = env.do(t, http.MethodPut, "/api/v1/users/"+bob.UserID, "admin", `{"email":"not an email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_user", decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "bob-session", LoginRequestDTO{Email: "robert@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/users/"+bob.UserID, "admin", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", "bob-session", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/users/"+bob.UserID, "admin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/users/"+bob.UserID, "admin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
