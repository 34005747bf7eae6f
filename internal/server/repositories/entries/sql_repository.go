package entries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kvstore/internal/common"
	"github.com/dmitrijs2005/kvstore/internal/dbx"
	"github.com/dmitrijs2005/kvstore/internal/server/models"
	"github.com/google/uuid"
)

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx)
// for the PostgreSQL and SQLite dialects.
type SQLRepository struct {
	db      dbx.DBTX
	dialect Dialect
}

// NewPostgresRepository binds a repository to a pgx-backed handle.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: Postgres}
}

// NewSQLiteRepository binds a repository to a modernc sqlite handle.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, dialect: SQLite}
}

const (
	postgresUpsert = `
		INSERT INTO kv_store (id, data, created_at, updated_at)
		VALUES ($1, $2::jsonb, now(), now())
		ON CONFLICT (id)
		DO UPDATE SET
			data = EXCLUDED.data,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at`

	sqliteUpsert = `
		INSERT INTO kv_store (id, data, created_at, updated_at)
		VALUES (?, json(?), strftime('%Y-%m-%dT%H:%M:%fZ', 'now'), strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT (id)
		DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`

	postgresRead = `SELECT data::text FROM kv_store WHERE id = $1`
	sqliteRead   = `SELECT data FROM kv_store WHERE id = ?`
)

func (r *SQLRepository) Upsert(ctx context.Context, id uuid.UUID, value json.RawMessage) error {
	query := sqliteUpsert
	if r.dialect == Postgres {
		query = postgresUpsert
	}

	if _, err := r.db.ExecContext(ctx, query, id.String(), string(value)); err != nil {
		return fmt.Errorf("upsert %s: %w", id, err)
	}
	return nil
}

func (r *SQLRepository) Read(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	query := sqliteRead
	if r.dialect == Postgres {
		query = postgresRead
	}

	var data string
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	return json.RawMessage(data), nil
}

func (r *SQLRepository) HealthCheck(ctx context.Context) error {
	var one int64
	err := r.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("health check query returned no rows")
	}
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

func (r *SQLRepository) txOptions() *sql.TxOptions {
	if r.dialect.SupportsReadOnlyTx() {
		return dbx.ReadOnly
	}
	return nil
}

func (r *SQLRepository) ListAll(ctx context.Context, opts models.ListOptions) (*models.ListResult, error) {
	count := r.dialect.BuildCount(opts)
	page, err := r.dialect.BuildData(opts)
	if err != nil {
		return nil, err
	}

	var total int64
	err = dbx.Run(ctx, r.db, r.txOptions(), func(ctx context.Context, tx dbx.DBTX) error {
		return tx.QueryRowContext(ctx, count.SQL, count.Args...).Scan(&total)
	})
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}

	result := &models.ListResult{Entries: []models.Entry{}, TotalCount: total}
	err = dbx.Run(ctx, r.db, r.txOptions(), func(ctx context.Context, tx dbx.DBTX) error {
		rows, err := tx.QueryContext(ctx, page.SQL, page.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e                    models.Entry
				data                 string
				createdAt, updatedAt scannedTime
			)
			if err := rows.Scan(&e.Key, &data, &createdAt, &updatedAt); err != nil {
				return err
			}
			e.Value = json.RawMessage(data)
			e.CreatedAt = createdAt.Time
			e.UpdatedAt = updatedAt.Time
			result.Entries = append(result.Entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	return result, nil
}

// scannedTime accepts native time values as well as the ISO-8601 text SQLite
// stores. Results are always UTC.
type scannedTime struct {
	time.Time
}

func (t *scannedTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		return errors.New("timestamp is NULL")
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *scannedTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
