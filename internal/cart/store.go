package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/session"
	"github.com/fjod/go_storefront/pkg/logger"
	"go.uber.org/zap"
)

// SnapshotKey is the session key holding the serialized cart.
const SnapshotKey = "cart"

// Store owns one session's cart. The mutex is held across the persist call,
// so mutations reach the session store in the order they were applied.
type Store struct {
	mu   sync.RWMutex
	kv   session.KV
	log  *zap.Logger
	snap domain.Snapshot
}

// Load restores the cart from kv. A missing or malformed snapshot yields an empty cart;
// only a failing session store is reported as an error.
func Load(ctx context.Context, kv session.KV, log *zap.Logger) (*Store, error) {
	s := &Store{kv: kv, log: log, snap: domain.EmptySnapshot()}

	data, err := kv.Get(ctx, SnapshotKey)
	if errors.Is(err, session.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart snapshot: %w", err)
	}

	snap, ok := decodeSnapshot(data)
	if !ok {
		logger.WithContext(ctx, log).Warn("malformed cart snapshot, starting with an empty cart",
			zap.Int("bytes", len(data)))
		return s, nil
	}
	s.snap = snap
	return s, nil
}

func decodeSnapshot(data []byte) (domain.Snapshot, bool) {
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, false
	}
	if !checkLoaded(snap) {
		return domain.Snapshot{}, false
	}
	if snap.Items == nil {
		snap.Items = []domain.LineItem{}
	}
	// the stored total may have drifted; items are the source of truth
	snap.TotalPrice = snap.Total()
	return snap, true
}

// AddItem merges quantity units of item into the cart. An invalid item leaves the
// cart unchanged and returns ErrInvalidCatalogItem.
func (s *Store) AddItem(ctx context.Context, item domain.CatalogItem, quantity int) error {
	if err := validateCatalogItem(item, quantity); err != nil {
		logger.WithContext(ctx, s.log).Warn("rejected catalog item",
			zap.String("item_id", item.ID.String()),
			zap.Int("quantity", quantity),
			zap.String("reason", err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrInvalidCatalogItem, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := applyAdd(s.snap, normalize(item, quantity))
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.snap = next
	return nil
}

// RemoveItem drops the line item with id. Removing an unknown id is a no-op.
func (s *Store) RemoveItem(ctx context.Context, id domain.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, removed := applyRemove(s.snap, id)
	if !removed {
		return nil
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.snap = next
	return nil
}

// Clear empties the cart and deletes the persisted snapshot.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

// Settle removes an ordered snapshot from the cart. Anything added after ordered was
// read survives; when nothing is left the persisted snapshot is deleted as in Clear.
func (s *Store) Settle(ctx context.Context, ordered domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := applySettle(s.snap, ordered)
	if next.IsEmpty() {
		return s.clearLocked(ctx)
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.snap = next
	return nil
}

// Sync restarts the persisted snapshot's TTL. If the snapshot expired under a
// non-empty cart, the cart is reset so it matches the session store again.
func (s *Store) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.kv.Touch(ctx, SnapshotKey)
	if errors.Is(err, session.ErrNotFound) {
		if !s.snap.IsEmpty() {
			logger.WithContext(ctx, s.log).Info("cart snapshot expired, starting with an empty cart",
				zap.Int("items", len(s.snap.Items)))
			s.snap = domain.EmptySnapshot()
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh cart snapshot: %w", err)
	}
	return nil
}

// clearLocked requires s.mu.
func (s *Store) clearLocked(ctx context.Context) error {
	if err := s.kv.Delete(ctx, SnapshotKey); err != nil {
		logger.WithContext(ctx, s.log).Error("delete cart snapshot failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.snap = domain.EmptySnapshot()
	return nil
}

func (s *Store) persist(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: marshal: %w", ErrPersist, err)
	}
	if err := s.kv.Set(ctx, SnapshotKey, data); err != nil {
		logger.WithContext(ctx, s.log).Error("write cart snapshot failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Snapshot returns a copy of the current cart. Callers must re-read after any blocking call.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.ItemCount()
}

// TotalPrice is the full-precision total.
func (s *Store) TotalPrice() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Total()
}

// DisplayTotal is the total rounded to two decimals.
func (s *Store) DisplayTotal() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.DisplayTotal()
}
