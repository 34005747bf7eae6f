// Package repomanager owns the shared store handle for the configured driver:
// it provisions backing resources, runs migrations, vends the entry
// repository and closes the handle on shutdown.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/kvstore/internal/logging"
	"github.com/dmitrijs2005/kvstore/internal/server/config"
	"github.com/dmitrijs2005/kvstore/internal/server/repositories/entries"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Entries() entries.Repository
	Close() error
}

// Open provisions and connects to the store named by cfg.Driver. Any failure
// is returned before a listener is started.
func Open(ctx context.Context, cfg *config.Config, l logging.Logger) (RepositoryManager, error) {
	l = l.With("module", "repomanager", "driver", cfg.Driver)

	var (
		m   RepositoryManager
		err error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		m, err = OpenPostgres(ctx, cfg.DatabaseDSN, l)
	case config.DriverSQLite:
		m, err = OpenSQLite(ctx, cfg.DatabaseDSN)
	case config.DriverSpanner:
		m, err = OpenSpanner(ctx, cfg, l)
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	l.Info(ctx, "store ready")
	return m, nil
}
