package repomanager

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/spanner"
	"github.com/dmitrijs2005/kvstore/internal/logging"
	"github.com/dmitrijs2005/kvstore/internal/server/config"
	"github.com/dmitrijs2005/kvstore/internal/server/provision"
	"github.com/dmitrijs2005/kvstore/internal/server/repositories/entries"
)

const emulatorHostEnv = "SPANNER_EMULATOR_HOST"

type spannerAdmin interface {
	provision.SpannerAdmin
	Close() error
}

// seams for tests
var (
	newSpannerAdmin = func(ctx context.Context) (spannerAdmin, error) {
		return provision.NewGoogleSpannerAdmin(ctx)
	}
	newSpannerClient = func(ctx context.Context, database string) (*spanner.Client, error) {
		return spanner.NewClient(ctx, database)
	}
)

// SpannerRepositoryManager holds the one *spanner.Client shared by all
// requests. Its schema is created by provisioning, not goose.
type SpannerRepositoryManager struct {
	client *spanner.Client
}

// OpenSpanner provisions the instance, database and table, then connects.
// A configured emulator host is exported so the Google clients find it.
func OpenSpanner(ctx context.Context, cfg *config.Config, l logging.Logger) (*SpannerRepositoryManager, error) {
	if cfg.SpannerEmulatorHost != "" {
		if err := os.Setenv(emulatorHostEnv, cfg.SpannerEmulatorHost); err != nil {
			return nil, err
		}
		l.Info(ctx, "using Spanner emulator", "host", cfg.SpannerEmulatorHost)
	} else {
		l.Info(ctx, "using production Spanner")
	}

	target := provision.SpannerTarget{
		Project:  cfg.SpannerProject,
		Instance: cfg.SpannerInstance,
		Database: cfg.SpannerDatabase,
		Emulator: cfg.SpannerEmulatorHost != "",
	}

	admin, err := newSpannerAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create spanner admin client: %w", err)
	}
	err = provision.Spanner(ctx, admin, target, l)
	_ = admin.Close()
	if err != nil {
		return nil, fmt.Errorf("provision spanner: %w", err)
	}

	client, err := newSpannerClient(ctx, target.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("create spanner client: %w", err)
	}

	l.Info(ctx, "connected to Spanner database", "database", target.DatabasePath())
	return &SpannerRepositoryManager{client: client}, nil
}

func NewSpannerRepositoryManager(client *spanner.Client) *SpannerRepositoryManager {
	return &SpannerRepositoryManager{client: client}
}

func (m *SpannerRepositoryManager) RunMigrations(context.Context) error {
	return nil
}

func (m *SpannerRepositoryManager) Entries() entries.Repository {
	return entries.NewSpannerRepository(m.client)
}

func (m *SpannerRepositoryManager) Close() error {
	m.client.Close()
	return nil
}
