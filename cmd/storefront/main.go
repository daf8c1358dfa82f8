package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/config"
	"github.com/fjod/go_storefront/internal/docstore"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	h "github.com/fjod/go_storefront/internal/http"
	"github.com/fjod/go_storefront/internal/identity"
	"github.com/fjod/go_storefront/internal/repository"
	"github.com/fjod/go_storefront/internal/session"
	"github.com/fjod/go_storefront/pkg/circuitbreaker"
	"github.com/fjod/go_storefront/pkg/logger"
)

type collections struct {
	products docstore.Collection[domain.CatalogItem]
	orders   docstore.Collection[domain.Order]
	users    docstore.Collection[domain.UserProfile]
	close    func(context.Context) error
}

func openCollections(ctx context.Context, cfg *config.Config) (*collections, error) {
	if cfg.DocstoreBackend == config.DocstoreBackendMemory {
		return &collections{
			products: docstore.NewMemoryCollection[domain.CatalogItem](docstore.Products),
			orders:   docstore.NewMemoryCollection[domain.Order](docstore.Orders),
			users:    docstore.NewMemoryCollection[domain.UserProfile](docstore.Users),
			close:    func(context.Context) error { return nil },
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db, err := docstore.Connect(connectCtx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, err
	}
	if err := docstore.EnsureIndexes(connectCtx, db); err != nil {
		_ = db.Client().Disconnect(context.Background())
		return nil, err
	}

	return &collections{
		products: docstore.NewMongoCollection[domain.CatalogItem](db, docstore.Products),
		orders:   docstore.NewMongoCollection[domain.Order](db, docstore.Orders),
		users:    docstore.NewMongoCollection[domain.UserProfile](db, docstore.Users),
		close:    db.Client().Disconnect,
	}, nil
}

func openSessions(ctx context.Context, cfg *config.Config) (session.Store, func() error, error) {
	if cfg.SessionBackend == config.SessionBackendMemory {
		return session.NewMemoryStore(cfg.SessionTTL), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return session.NewRedisStore(client, cfg.SessionTTL), client.Close, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()
	zap.ReplaceGlobals(lg)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	ctx := context.Background()

	docs, err := openCollections(ctx, cfg)
	if err != nil {
		lg.Fatal("document store unavailable", zap.String("backend", cfg.DocstoreBackend), zap.Error(err))
	}

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		lg.Fatal("session store unavailable", zap.String("backend", cfg.SessionBackend), zap.Error(err))
	}

	products := repository.NewProductRepository(docs.products)
	orders := repository.NewOrderRepository(docs.orders, circuitbreaker.New[string]("orders", lg))
	users := repository.NewUserRepository(docs.users)

	auth := identity.NewProvider(users, cfg.SessionTTL, lg)
	carts := cart.NewManager(sessions, lg, cfg.CartIdleEviction)

	var publisher *events.OrderPublisher
	var orderEvents checkout.OrderEvents
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewOrderPublisher(cfg.OrdersTopic, cfg.KafkaBrokers...)
		orderEvents = publisher
	}

	checkouts := checkout.NewService(auth, orders, orderEvents, cfg.CheckoutTimeout, lg)
	carts.OnEvict(checkouts.Forget)
	unsubscribe := auth.Subscribe(func(e identity.Event) {
		if e.Kind == identity.SignedOut {
			checkouts.Forget(e.SessionID)
		}
	})

	router := h.NewRouter(h.Deps{
		Carts:          carts,
		Catalog:        products,
		Checkouts:      checkouts,
		Orders:         orders,
		Auth:           auth,
		Profiles:       users,
		Log:            lg,
		RequestTimeout: cfg.RequestTimeout,
		SecureCookies:  !cfg.Development,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("storefront starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("docstore", cfg.DocstoreBackend),
			zap.String("sessions", cfg.SessionBackend),
			zap.Bool("order_events", publisher != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}

	unsubscribe()
	auth.Close()
	carts.Close()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			lg.Warn("close order publisher", zap.Error(err))
		}
	}
	if err := closeSessions(); err != nil {
		lg.Warn("close session store", zap.Error(err))
	}
	if err := docs.close(shutdownCtx); err != nil {
		lg.Warn("close document store", zap.Error(err))
	}

	lg.Info("server exited")
}
