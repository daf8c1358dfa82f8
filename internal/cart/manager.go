package cart

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Manager hands out one Store per session and drops stores that sit idle.
// Evicted sessions reload from the session store on their next Open.
type Manager struct {
	store session.Store
	log   *zap.Logger
	idle  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	carts   map[string]*managedCart
	onEvict []func(sessionID string)

	sfg singleflight.Group // collapses concurrent first loads of a session

	stopCleanup chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

type managedCart struct {
	store      *Store
	lastAccess time.Time
}

// NewManager starts the idle janitor when idle > 0. Call Close to stop it.
func NewManager(store session.Store, log *zap.Logger, idle time.Duration) *Manager {
	m := &Manager{
		store:       store,
		log:         log,
		idle:        idle,
		now:         time.Now,
		carts:       make(map[string]*managedCart),
		stopCleanup: make(chan struct{}),
	}

	if idle > 0 {
		m.wg.Add(1)
		go m.cleanupLoop(cleanupInterval(idle))
	}
	return m
}

func cleanupInterval(idle time.Duration) time.Duration {
	interval := idle / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return interval
}

// Open returns the session's cart, loading it on first access.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	if st, ok := m.lookup(sessionID); ok {
		// a held cart never reads the session store again, so keep its TTL in step
		if err := st.Sync(ctx); err != nil {
			m.log.Warn("refresh cart ttl failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		return st, nil
	}

	v, err, _ := m.sfg.Do(sessionID, func() (interface{}, error) {
		if st, ok := m.lookup(sessionID); ok {
			return st, nil
		}

		st, err := Load(ctx, session.Bind(m.store, sessionID), m.log.With(zap.String("session_id", sessionID)))
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.carts[sessionID] = &managedCart{store: st, lastAccess: m.now()}
		m.mu.Unlock()
		return st, nil
	})
	if err != nil {
		m.log.Error("open cart failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return v.(*Store), nil
}

func (m *Manager) lookup(sessionID string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mc, ok := m.carts[sessionID]
	if !ok {
		return nil, false
	}
	mc.lastAccess = m.now()
	return mc.store, true
}

// OnEvict registers fn to run after a session's cart is dropped from memory.
func (m *Manager) OnEvict(fn func(sessionID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = append(m.onEvict, fn)
}

// Len reports how many carts are held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.carts)
}

func (m *Manager) cleanupLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) evictIdle() {
	m.mu.Lock()
	cutoff := m.now().Add(-m.idle)
	var evicted []string
	for id, mc := range m.carts {
		if mc.lastAccess.Before(cutoff) {
			delete(m.carts, id)
			evicted = append(evicted, id)
		}
	}
	hooks := append([]func(string){}, m.onEvict...)
	m.mu.Unlock()

	for _, id := range evicted {
		for _, fn := range hooks {
			fn(id)
		}
	}
	if len(evicted) > 0 {
		m.log.Debug("evicted idle carts", zap.Int("count", len(evicted)))
	}
}

// Close stops the janitor. Stores already handed out stay usable.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.stopCleanup)
	})
	m.wg.Wait()
}
