package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrInvalidEmail       = errors.New("invalid email address")
)

// Identity is the signed-in user bound to a session.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type EventKind int

const (
	SignedIn EventKind = iota
	SignedOut
)

func (k EventKind) String() string {
	if k == SignedIn {
		return "signed_in"
	}
	return "signed_out"
}

type Event struct {
	Kind      EventKind
	SessionID string
	Identity  Identity
}

type Registration struct {
	Email    string
	Password string
	Name     string
	Address  string
}

// Users is the profile store the provider registers and authenticates against.
type Users interface {
	Create(ctx context.Context, profile domain.UserProfile) error
	FindByEmail(ctx context.Context, email string) (domain.UserProfile, error)
}

// Provider authenticates users and tracks which user each session is signed in as.
// A binding unused for ttl expires, matching the lifetime of the session's data.
type Provider struct {
	users Users
	log   *zap.Logger
	cost  int
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*binding

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int

	stopCleanup chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
}

type binding struct {
	id       Identity
	lastSeen time.Time
}

// NewProvider starts a janitor that prunes expired bindings when ttl > 0. A zero ttl
// keeps bindings until SignOut. Call Close to stop the janitor.
func NewProvider(users Users, ttl time.Duration, log *zap.Logger) *Provider {
	p := &Provider{
		users:       users,
		log:         log,
		cost:        bcrypt.DefaultCost,
		ttl:         ttl,
		now:         time.Now,
		sessions:    make(map[string]*binding),
		subs:        make(map[int]func(Event)),
		stopCleanup: make(chan struct{}),
	}

	if ttl > 0 {
		p.wg.Add(1)
		go p.cleanupLoop(cleanupInterval(ttl))
	}
	return p
}

func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	return interval
}

// Register creates a user profile and signs sessionID in as that user.
func (p *Provider) Register(ctx context.Context, sessionID string, reg Registration) (Identity, error) {
	id, err := p.create(ctx, reg)
	if err != nil {
		return Identity{}, err
	}
	p.bind(sessionID, id)
	return id, nil
}

// CreateUser creates a user profile without signing anyone in.
func (p *Provider) CreateUser(ctx context.Context, reg Registration) (Identity, error) {
	return p.create(ctx, reg)
}

func (p *Provider) create(ctx context.Context, reg Registration) (Identity, error) {
	email, err := normalizeEmail(reg.Email)
	if err != nil {
		return Identity{}, err
	}
	if len(reg.Password) < MinPasswordLength {
		return Identity{}, ErrWeakPassword
	}

	_, err = p.users.FindByEmail(ctx, email)
	if err == nil {
		return Identity{}, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return Identity{}, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), p.cost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}

	profile := domain.UserProfile{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(reg.Name),
		Address:      strings.TrimSpace(reg.Address),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := p.users.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return Identity{}, ErrEmailTaken
		}
		return Identity{}, fmt.Errorf("create user: %w", err)
	}

	p.log.Info("user registered", zap.String("user_id", profile.ID))
	return Identity{UserID: profile.ID, Email: profile.Email, Name: profile.Name}, nil
}

func (p *Provider) SignIn(ctx context.Context, sessionID, email, password string) (Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	profile, err := p.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return Identity{}, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	id := Identity{UserID: profile.ID, Email: profile.Email, Name: profile.Name}
	p.bind(sessionID, id)
	return id, nil
}

// SignOut unbinds the session. Signing out an anonymous session does nothing.
func (p *Provider) SignOut(sessionID string) {
	p.mu.Lock()
	b, ok := p.sessions[sessionID]
	delete(p.sessions, sessionID)
	p.mu.Unlock()

	if ok {
		p.notify(Event{Kind: SignedOut, SessionID: sessionID, Identity: b.id})
	}
}

// SignOutUser unbinds every session signed in as userID.
func (p *Provider) SignOutUser(userID string) {
	p.unbindWhere(func(b *binding) bool { return b.id.UserID == userID })
}

// Current returns the identity signed in on sessionID, if any, and extends the binding.
func (p *Provider) Current(sessionID string) (Identity, bool) {
	p.mu.Lock()
	b, ok := p.sessions[sessionID]
	if !ok {
		p.mu.Unlock()
		return Identity{}, false
	}
	if p.expired(b) {
		delete(p.sessions, sessionID)
		p.mu.Unlock()
		p.notify(Event{Kind: SignedOut, SessionID: sessionID, Identity: b.id})
		return Identity{}, false
	}
	b.lastSeen = p.now()
	id := b.id
	p.mu.Unlock()
	return id, true
}

// Len reports how many sessions are signed in, including expired ones not yet pruned.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Close stops the janitor.
func (p *Provider) Close() {
	p.closeOnce.Do(func() {
		close(p.stopCleanup)
	})
	p.wg.Wait()
}

func (p *Provider) cleanupLoop(interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.prune()
		case <-p.stopCleanup:
			return
		}
	}
}

func (p *Provider) prune() {
	if n := p.unbindWhere(p.expired); n > 0 {
		p.log.Debug("pruned expired sign-ins", zap.Int("count", n))
	}
}

// unbindWhere drops the matching bindings and sends SignedOut for each outside the lock.
func (p *Provider) unbindWhere(match func(*binding) bool) int {
	p.mu.Lock()
	var events []Event
	for sid, b := range p.sessions {
		if match(b) {
			delete(p.sessions, sid)
			events = append(events, Event{Kind: SignedOut, SessionID: sid, Identity: b.id})
		}
	}
	p.mu.Unlock()

	for _, e := range events {
		p.notify(e)
	}
	return len(events)
}

// expired requires p.mu.
func (p *Provider) expired(b *binding) bool {
	return p.ttl > 0 && !p.now().Before(b.lastSeen.Add(p.ttl))
}

// Subscribe registers fn for sign-in and sign-out events. Call the returned func to stop.
func (p *Provider) Subscribe(fn func(Event)) (unsubscribe func()) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	key := p.nextSub
	p.nextSub++
	p.subs[key] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			p.subMu.Lock()
			defer p.subMu.Unlock()
			delete(p.subs, key)
		})
	}
}

func (p *Provider) bind(sessionID string, id Identity) {
	p.mu.Lock()
	p.sessions[sessionID] = &binding{id: id, lastSeen: p.now()}
	p.mu.Unlock()
	p.notify(Event{Kind: SignedIn, SessionID: sessionID, Identity: id})
}

func (p *Provider) notify(e Event) {
	p.subMu.Lock()
	fns := make([]func(Event), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
