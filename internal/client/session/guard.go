// Package session holds the client's authentication state: the bearer token,
// the verified username and the aggregate cart count shown in navigation.
//
// Guard is the single source other components consult before any mutating
// action. Token presence alone never makes a session authenticated; only an
// accepted verify response does.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fzon/storefront/internal/client/client"
	"github.com/fzon/storefront/internal/client/models"
	"github.com/fzon/storefront/internal/logging"
	"github.com/sethvargo/go-retry"
)

var (
	// ErrNoToken is returned by Verify when there is nothing to verify. It
	// matches client.ErrUnauthorized.
	ErrNoToken = fmt.Errorf("%w: no session token", client.ErrUnauthorized)

	// ErrSuperseded means the session was replaced or invalidated while a
	// verify call was in flight, so its result was dropped.
	ErrSuperseded = errors.New("session changed while request was in flight")
)

type Status int

const (
	Unauthenticated Status = iota
	Authenticated
)

func (s Status) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Verifier is the part of client.Client the guard needs.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Profile, error)
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Status    Status
	Username  string
	CartCount int
	HasToken  bool
	Epoch     uint64
}

type Listener func(Snapshot)

type Option func(*Guard)

// WithBackoff configures VerifyWithBackoff: at most attempts retries,
// starting at base and doubling each time.
func WithBackoff(attempts uint64, base time.Duration) Option {
	return func(g *Guard) {
		g.backoffAttempts = attempts
		g.backoffBase = base
	}
}

type Guard struct {
	verifier Verifier
	store    TokenStore
	logger   logging.Logger

	backoffAttempts uint64
	backoffBase     time.Duration

	mu       sync.RWMutex
	token    string
	username string
	status   Status
	count    int
	epoch    uint64

	// countGen changes on every local or mutation write to count. A verify
	// reply only overwrites count if no such write happened while it was in
	// flight.
	countGen uint64

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

func NewGuard(v Verifier, store TokenStore, logger logging.Logger, opts ...Option) *Guard {
	g := &Guard{
		verifier:        v,
		store:           store,
		logger:          logger.With("module", "session"),
		backoffAttempts: 3,
		backoffBase:     200 * time.Millisecond,
		listeners:       make(map[int]Listener),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Restore loads the persisted token. The session stays unauthenticated until
// Verify succeeds.
func (g *Guard) Restore(ctx context.Context) error {
	token, err := g.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}

	g.mu.Lock()
	g.token = token
	g.status = Unauthenticated
	g.username = ""
	g.count = 0
	g.epoch++
	g.mu.Unlock()

	g.notify()
	return nil
}

// IsAuthenticated reports the current status without any I/O.
func (g *Guard) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status == Authenticated
}

func (g *Guard) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// Credentials reads the token, the epoch and the authentication flag in one
// step, so a caller can tag a request with the identity it was sent under.
func (g *Guard) Credentials() (token string, epoch uint64, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token, g.epoch, g.status == Authenticated
}

// Epoch changes whenever the session identity changes: on Restore, Accept and
// Invalidate. Responses tagged with an older epoch must not be applied.
func (g *Guard) Epoch() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.epoch
}

func (g *Guard) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapshotLocked()
}

func (g *Guard) snapshotLocked() Snapshot {
	return Snapshot{
		Status:    g.status,
		Username:  g.username,
		CartCount: g.count,
		HasToken:  g.token != "",
		Epoch:     g.epoch,
	}
}

// Verify performs one round trip to the verification endpoint.
//
// On success the session becomes authenticated with the returned username and
// cart count. On 401/403 the session is invalidated. Any other failure leaves
// the state untouched and is returned to the caller.
//
// A count written by a cart mutation while the verify was in flight is newer
// than the verify reply and is kept.
func (g *Guard) Verify(ctx context.Context) (models.Profile, error) {
	g.mu.RLock()
	token, epoch, gen := g.token, g.epoch, g.countGen
	g.mu.RUnlock()

	if token == "" {
		return models.Profile{}, ErrNoToken
	}

	p, err := g.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			g.InvalidateAt(ctx, epoch)
			return models.Profile{}, err
		}
		g.logger.Warn(ctx, "verify failed", "err", err)
		return models.Profile{}, err
	}

	g.mu.Lock()
	if g.epoch != epoch {
		g.mu.Unlock()
		return models.Profile{}, ErrSuperseded
	}
	g.status = Authenticated
	g.username = p.Username
	if g.countGen == gen {
		g.count = max(0, p.CartCount)
	} else {
		g.logger.Debug(ctx, "verify count superseded by cart update", "count", p.CartCount)
	}
	snap := g.snapshotLocked()
	g.mu.Unlock()

	g.notify()
	return models.Profile{Username: snap.Username, CartCount: snap.CartCount}, nil
}

// VerifyWithBackoff retries Verify on transient failures with exponential
// backoff. Authentication failures stop immediately.
func (g *Guard) VerifyWithBackoff(ctx context.Context) (models.Profile, error) {
	b := retry.NewExponential(g.backoffBase)
	b = retry.WithMaxRetries(g.backoffAttempts, b)

	var p models.Profile
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		res, err := g.Verify(ctx)
		if err == nil {
			p = res
			return nil
		}
		if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, ErrSuperseded) {
			return err
		}
		return retry.RetryableError(err)
	})
	return p, err
}

// Accept installs a freshly issued token, persists it and verifies it.
func (g *Guard) Accept(ctx context.Context, token string) (models.Profile, error) {
	g.mu.Lock()
	g.token = token
	g.status = Unauthenticated
	g.username = ""
	g.count = 0
	g.epoch++
	g.mu.Unlock()
	g.notify()

	if err := g.store.Save(ctx, token); err != nil {
		g.logger.Warn(ctx, "token not persisted", "err", err)
	}

	return g.Verify(ctx)
}

// AdjustAggregateCount applies a local, optimistic change clamped at zero.
func (g *Guard) AdjustAggregateCount(delta int) {
	g.mu.Lock()
	g.count = max(0, g.count+delta)
	g.countGen++
	g.mu.Unlock()

	g.notify()
}

// SetAggregateCount overwrites the count with an authoritative value.
func (g *Guard) SetAggregateCount(value int) {
	g.mu.Lock()
	g.count = max(0, value)
	g.countGen++
	g.mu.Unlock()

	g.notify()
}

// SetAggregateCountAt is SetAggregateCount guarded by epoch. It reports
// whether the value was applied.
func (g *Guard) SetAggregateCountAt(epoch uint64, value int) bool {
	g.mu.Lock()
	if g.epoch != epoch {
		g.mu.Unlock()
		return false
	}
	g.count = max(0, value)
	g.countGen++
	g.mu.Unlock()

	g.notify()
	return true
}

// Invalidate drops the token from memory and storage and resets the session
// to unauthenticated with a zero count.
func (g *Guard) Invalidate(ctx context.Context) {
	g.mu.Lock()
	g.resetLocked()
	g.mu.Unlock()

	g.clearStore(ctx)
	g.notify()
}

// InvalidateAt invalidates only if no other identity change happened since
// epoch, so a late 401 for an old token cannot log out a newer session. It
// reports whether the session was reset.
func (g *Guard) InvalidateAt(ctx context.Context, epoch uint64) bool {
	g.mu.Lock()
	if g.epoch != epoch {
		g.mu.Unlock()
		return false
	}
	g.resetLocked()
	g.mu.Unlock()

	g.clearStore(ctx)
	g.notify()
	return true
}

func (g *Guard) resetLocked() {
	g.token = ""
	g.username = ""
	g.status = Unauthenticated
	g.count = 0
	g.epoch++
}

func (g *Guard) clearStore(ctx context.Context) {
	if err := g.store.Clear(ctx); err != nil {
		g.logger.Error(ctx, "failed to erase stored token", "err", err)
	}
}

// Subscribe registers fn for every state change and returns a function that
// removes it. Listeners run synchronously, one delivery at a time, and always
// receive the state current at delivery. They must not call Subscribe.
func (g *Guard) Subscribe(fn Listener) func() {
	g.lmu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.lmu.Unlock()

	return func() {
		g.lmu.Lock()
		delete(g.listeners, id)
		g.lmu.Unlock()
	}
}

func (g *Guard) notify() {
	g.lmu.Lock()
	defer g.lmu.Unlock()

	s := g.Snapshot()
	for _, l := range g.listeners {
		l(s)
	}
}
