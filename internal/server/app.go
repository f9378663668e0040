// Package server wires the storefront backend together: it opens the
// database, runs migrations, and runs the HTTP API next to the settlement
// worker until the process is told to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fzon/storefront/internal/logging"
	"github.com/fzon/storefront/internal/server/config"
	"github.com/fzon/storefront/internal/server/httpapi"
	"github.com/fzon/storefront/internal/server/metrics"
	"github.com/fzon/storefront/internal/server/repositories/repomanager"
	"github.com/fzon/storefront/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"
)

// openDB is replaced by tests.
var openDB = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	http   *httpapi.Server
	worker *services.SettlementWorker
}

// NewApp opens the database, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	return newApp(ctx, c, logger, repomanager.NewPostgresRepositoryManager())
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, rm repomanager.RepositoryManager) (*App, error) {
	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	m := metrics.New()
	bank := services.NewBankService(db, rm)

	svc := httpapi.Services{
		Users:   services.NewUserService(db, rm, c),
		Cart:    services.NewCartService(db, rm, c),
		Catalog: services.NewCatalogService(db, rm, services.NewS3Presigner(c), logger),
		Orders:  services.NewOrderService(db, rm),
		Bank:    bank,
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   httpapi.NewServer(c, svc, logger, m),
		worker: services.NewSettlementWorker(db, rm, bank, c, logger, m),
	}, nil
}

// Run serves until SIGINT/SIGTERM or until ctx is done. A failure of either
// the HTTP server or the worker stops both.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.http.Run(ctx) })
	g.Go(func() error { return app.worker.Run(ctx) })

	err := g.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Warn(context.Background(), "closing database", "err", cerr)
	}
	app.logger.Info(context.Background(), "App stopped")
	return err
}
