package checkout

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/identity"
	"github.com/fjod/go_storefront/pkg/logger"
	"go.uber.org/zap"
)

// CatalogRoot is where the client goes after a successful checkout.
const CatalogRoot = "/"

// Cart is the session cart as checkout sees it. Settle removes what was ordered and
// keeps anything added while the order was being written.
type Cart interface {
	Snapshot() domain.Snapshot
	Settle(ctx context.Context, ordered domain.Snapshot) error
}

type IdentitySource interface {
	Current(sessionID string) (identity.Identity, bool)
}

type OrderWriter interface {
	Create(ctx context.Context, order domain.Order) (string, error)
}

type OrderEvents interface {
	PublishOrderPlaced(ctx context.Context, order domain.Order) error
}

type Result struct {
	Order domain.Order
	Next  string
}

// Service owns one Orchestrator per session.
type Service struct {
	identity IdentitySource
	orders   OrderWriter
	events   OrderEvents
	timeout  time.Duration
	log      *zap.Logger
	now      func() time.Time

	mu            sync.Mutex
	orchestrators map[string]*Orchestrator
}

// NewService builds the checkout service. events may be nil.
func NewService(ids IdentitySource, orders OrderWriter, events OrderEvents, timeout time.Duration, log *zap.Logger) *Service {
	return &Service{
		identity:      ids,
		orders:        orders,
		events:        events,
		timeout:       timeout,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
		orchestrators: make(map[string]*Orchestrator),
	}
}

// For returns the session's orchestrator bound to cart. An idle orchestrator bound to a
// different cart instance is replaced.
func (s *Service) For(sessionID string, cart Cart) *Orchestrator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.orchestrators[sessionID]; ok {
		if o.cart == cart || o.State().Busy() {
			return o
		}
	}
	o := &Orchestrator{sessionID: sessionID, cart: cart, svc: s}
	s.orchestrators[sessionID] = o
	return o
}

// Forget drops the session's orchestrator unless a submission is running.
func (s *Service) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orchestrators[sessionID]; ok && !o.State().Busy() {
		delete(s.orchestrators, sessionID)
	}
}

// Orchestrator turns one session's cart into an order. At most one Submit runs at a time.
type Orchestrator struct {
	sessionID string
	cart      Cart
	svc       *Service
	state     atomic.Int32
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Submit validates the cart and writes an order. Rejections and failures leave the
// cart untouched; success takes the ordered lines out of it.
func (o *Orchestrator) Submit(ctx context.Context, shipping domain.ShippingDetails) (*Result, error) {
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateValidating)) {
		return nil, ErrSubmissionInFlight
	}
	defer o.state.Store(int32(StateIdle))

	log := logger.WithContext(ctx, o.svc.log).With(zap.String("session_id", o.sessionID))

	who, ok := o.svc.identity.Current(o.sessionID)
	if !ok {
		return nil, ErrNotLoggedIn
	}
	snap := o.cart.Snapshot()
	if snap.IsEmpty() {
		return nil, ErrEmptyCart
	}
	for _, it := range snap.Items {
		if !validLine(it) {
			log.Warn("checkout rejected invalid line item", zap.String("item_id", it.ID.String()))
			return nil, ErrInvalidCart
		}
	}
	if !shipping.Complete() {
		return nil, ErrIncompleteShipping
	}

	o.state.Store(int32(StateSubmitting))
	order := buildOrder(who.UserID, snap, shipping, o.svc.now())

	writeCtx, cancel := context.WithTimeout(ctx, o.svc.timeout)
	orderID, err := o.svc.orders.Create(writeCtx, order)
	cancel()
	if err != nil {
		log.Error("order submission failed", zap.String("user_id", who.UserID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	order.ID = orderID

	log = log.With(zap.String("order_id", orderID), zap.String("user_id", who.UserID))
	if err := o.cart.Settle(ctx, snap); err != nil {
		// the order already exists, so this is not a submission failure
		log.Error("order placed but cart was not settled", zap.Error(err))
	}
	if o.svc.events != nil {
		if err := o.svc.events.PublishOrderPlaced(ctx, order); err != nil {
			log.Warn("order event not published", zap.Error(err))
		}
	}
	log.Info("order placed", zap.Float64("total_amount", order.TotalAmount), zap.Int("items", len(order.Items)))

	return &Result{Order: order, Next: CatalogRoot}, nil
}
