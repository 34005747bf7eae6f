// Package entries stores JSON documents keyed by UUID in the kv_store table.
// PostgreSQL and SQLite share SQLRepository over a dbx.DBTX; Spanner has its
// own implementation over a *spanner.Client.
package entries

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/kvstore/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	// Upsert inserts or fully replaces the document under id. Both timestamps
	// are set to the commit instant on every call, so created_at is not kept
	// across overwrites.
	Upsert(ctx context.Context, id uuid.UUID, value json.RawMessage) error
	// Read returns common.ErrorNotFound when no row exists.
	Read(ctx context.Context, id uuid.UUID) (json.RawMessage, error)
	HealthCheck(ctx context.Context) error
	// ListAll runs the count and the page query in separate read-only
	// transactions; the two need not observe the same snapshot.
	ListAll(ctx context.Context, opts models.ListOptions) (*models.ListResult, error)
}
