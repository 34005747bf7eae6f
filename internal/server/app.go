// Package server wires the configured store, services and transports
// together and runs them until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/kvstore/internal/logging"
	"github.com/dmitrijs2005/kvstore/internal/server/config"
	"github.com/dmitrijs2005/kvstore/internal/server/metrics"
	"github.com/dmitrijs2005/kvstore/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kvstore/internal/server/rest"
	"github.com/dmitrijs2005/kvstore/internal/server/services"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/kvstore/internal/server/grpc"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	metrics      *metrics.Metrics
	store        repomanager.RepositoryManager
	entryService *services.EntryService
	snapshot     rest.Snapshotter
}

// openStore is a seam for tests.
var openStore = repomanager.Open

// NewApp provisions and connects to the store before any listener starts,
// so a broken backend fails start-up instead of the first request.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.NewJSON(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, err
	}
	c.LogStartup(ctx, logger)

	m := metrics.New()

	store, err := openStore(ctx, c, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	es := services.NewEntryService(store.Entries(), m, logger)

	app := &App{config: c, logger: logger, metrics: m, store: store, entryService: es}
	if c.S3Bucket != "" {
		app.snapshot = services.NewSnapshotService(es, c, logger)
	}
	return app, nil
}

func (app *App) startHTTPServer(ctx context.Context) error {
	h := rest.NewHandler(app.entryService, app.snapshot, app.logger)
	router := rest.NewRouter(h, app.metrics, app.logger, rest.Options{
		RequestTimeout: app.config.RequestTimeout,
		AuthSecret:     app.config.AuthSecret,
	})
	return rest.NewServer(app.config.HTTPAddr(), router, app.logger, app.config.ShutdownTimeout).Run(ctx)
}

func (app *App) startGRPCServer(ctx context.Context) error {
	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.entryService, app.config.HealthInterval, app.logger)
	return s.Run(ctx)
}

// Run serves until SIGINT, SIGTERM or SIGQUIT, or until a server fails.
// The store handle is closed after every server has stopped.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	defer func() {
		if err := app.store.Close(); err != nil {
			app.logger.Error(ctx, "close store", "error", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.startHTTPServer(ctx) })
	if app.config.GRPCHealthAddr != "" {
		g.Go(func() error { return app.startGRPCServer(ctx) })
	}

	err := g.Wait()
	app.logger.Info(ctx, "App stopped")
	return err
}
