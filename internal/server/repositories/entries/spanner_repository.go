package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/dmitrijs2005/kvstore/internal/common"
	"github.com/dmitrijs2005/kvstore/internal/server/models"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const tableName = "kv_store"

var columns = []string{"id", "data", "created_at", "updated_at"}

// SpannerRepository implements Repository over a shared *spanner.Client.
// Reads use single-use read-only transactions.
type SpannerRepository struct {
	client *spanner.Client
}

func NewSpannerRepository(client *spanner.Client) *SpannerRepository {
	return &SpannerRepository{client: client}
}

func (r *SpannerRepository) Upsert(ctx context.Context, id uuid.UUID, value json.RawMessage) error {
	m := spanner.InsertOrUpdate(tableName, columns, []any{
		id.String(),
		spanner.NullJSON{Value: value, Valid: true},
		spanner.CommitTimestamp,
		spanner.CommitTimestamp,
	})
	if _, err := r.client.Apply(ctx, []*spanner.Mutation{m}); err != nil {
		return fmt.Errorf("upsert %s: %w", id, err)
	}
	return nil
}

func (r *SpannerRepository) Read(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	stmt := spanner.Statement{
		SQL:    "SELECT TO_JSON_STRING(data) AS data FROM kv_store WHERE id = @id",
		Params: map[string]any{"id": id.String()},
	}

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}

	var data string
	if err := row.Columns(&data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return json.RawMessage(data), nil
}

func (r *SpannerRepository) HealthCheck(ctx context.Context) error {
	iter := r.client.Single().Query(ctx, spanner.NewStatement("SELECT 1"))
	defer iter.Stop()

	if _, err := iter.Next(); err != nil {
		if errors.Is(err, iterator.Done) {
			return errors.New("health check query returned no rows")
		}
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

func (r *SpannerRepository) ListAll(ctx context.Context, opts models.ListOptions) (*models.ListResult, error) {
	page, err := Spanner.BuildData(opts)
	if err != nil {
		return nil, err
	}

	total, err := r.count(ctx, Spanner.BuildCount(opts))
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}

	result := &models.ListResult{Entries: []models.Entry{}, TotalCount: total}

	iter := r.client.Single().Query(ctx, toSpannerStatement(page))
	err = iter.Do(func(row *spanner.Row) error {
		var (
			e                    models.Entry
			data                 string
			createdAt, updatedAt time.Time
		)
		if err := row.Columns(&e.Key, &data, &createdAt, &updatedAt); err != nil {
			return err
		}
		e.Value = json.RawMessage(data)
		e.CreatedAt = createdAt.UTC()
		e.UpdatedAt = updatedAt.UTC()
		result.Entries = append(result.Entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	return result, nil
}

func (r *SpannerRepository) count(ctx context.Context, stmt Statement) (int64, error) {
	iter := r.client.Single().Query(ctx, toSpannerStatement(stmt))
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Columns(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func toSpannerStatement(s Statement) spanner.Statement {
	params := make(map[string]any, len(s.Args))
	for _, a := range s.Args {
		if named, ok := a.(sql.NamedArg); ok {
			params[named.Name] = named.Value
		}
	}
	return spanner.Statement{SQL: s.SQL, Params: params}
}
