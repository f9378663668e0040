package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fzon/storefront/internal/client/authgate"
	"github.com/fzon/storefront/internal/client/cart"
	"github.com/fzon/storefront/internal/client/catalog"
	"github.com/fzon/storefront/internal/client/client"
	"github.com/fzon/storefront/internal/client/config"
	"github.com/fzon/storefront/internal/client/repositories/credentials"
	"github.com/fzon/storefront/internal/client/services"
	"github.com/fzon/storefront/internal/client/session"
	"github.com/fzon/storefront/internal/client/views"
	"github.com/fzon/storefront/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const gridColumns = 3

// App wires the shared session, catalog and auth gate to the widgets and the
// REPL. Every widget receives the same Guard and Cache.
type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	api        client.Client
	guard      *session.Guard
	cache      *catalog.Cache
	gate       *authgate.Gate
	coord      *cart.Coordinator
	storefront services.StorefrontService

	nav  *views.NavBar
	grid *views.ProductGrid

	reader *bufio.Reader

	unwatch func()

	mu     sync.Mutex
	mode   Mode
	authed bool
}

// NewApp opens the token database and builds an App talking to
// c.ServerURL.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.TokenDBPath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "err", err)
		return nil, err
	}

	store := credentials.NewTokenStore(credentials.NewSQLiteRepository(db))
	api := client.NewHTTPClient(c.ServerURL)

	a := newApp(c, logger, api, store, os.Stdin)
	a.db = db
	return a, nil
}

func newApp(c *config.Config, logger logging.Logger, api client.Client, store session.TokenStore, in io.Reader) *App {
	guard := session.NewGuard(api, store, logger, session.WithBackoff(c.BackoffAttempts, c.BackoffBase))
	cache := catalog.NewCache()
	gate := authgate.New(api, guard, logger)
	coord := cart.NewCoordinator(api, guard, cache, gate, logger, cart.Config{
		Timeout:         c.MutationTimeout,
		Ordering:        c.Ordering,
		OptimisticBadge: c.OptimisticBadge,
	})

	a := &App{
		config:     c,
		logger:     logger,
		api:        api,
		guard:      guard,
		cache:      cache,
		gate:       gate,
		coord:      coord,
		storefront: services.NewStorefrontService(api, guard, cache, logger),
		nav:        views.NewNavBar(guard),
		grid:       views.NewProductGrid(cache, gridColumns),
		reader:     bufio.NewReader(in),
		mode:       ModeOnline,
	}
	a.unwatch = guard.Subscribe(a.onSession)
	return a
}

// onSession drops the per-user quantities from the grid as soon as a session
// ends, whichever call noticed the revoked token.
func (a *App) onSession(s session.Snapshot) {
	a.mu.Lock()
	ended := a.authed && s.Status != session.Authenticated
	a.authed = s.Status == session.Authenticated
	a.mu.Unlock()

	if ended {
		a.cache.ClearQuantities()
	}
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Run starts the REPL and blocks until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	a.unwatch()
	a.nav.Close()
	a.grid.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "closing token database", "err", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.guard.IsAuthenticated()
}

// StartSessionWatcher re-verifies the session every interval. Without a token
// it only probes the server. An auth failure invalidates the session through
// the guard; any other failure switches the client to offline mode.
func (a *App) StartSessionWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkSession(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkSession(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var err error
	if a.guard.Snapshot().HasToken {
		_, err = a.guard.Verify(ctx)
	} else {
		err = a.api.Ping(ctx)
	}

	switch {
	case err == nil, errors.Is(err, client.ErrUnauthorized), errors.Is(err, session.ErrSuperseded):
		a.setMode(ModeOnline)
	default:
		a.setMode(ModeOffline)
	}
}
