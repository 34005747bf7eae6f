package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/kvstore/internal/logging"
	"github.com/dmitrijs2005/kvstore/internal/server/migrations"
	"github.com/dmitrijs2005/kvstore/internal/server/provision"
	"github.com/dmitrijs2005/kvstore/internal/server/repositories/entries"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager serves the PostgreSQL and SQLite drivers over one
// pooled *sql.DB.
type SQLRepositoryManager struct {
	db      *sql.DB
	dialect entries.Dialect
}

func NewSQLRepositoryManager(db *sql.DB, dialect entries.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{db: db, dialect: dialect}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

var provisionPostgres = provision.PostgresDatabase

// OpenPostgres creates the database when missing and opens a pgx pool.
func OpenPostgres(ctx context.Context, dsn string, l logging.Logger) (*SQLRepositoryManager, error) {
	if err := provisionPostgres(ctx, dsn, l); err != nil {
		return nil, fmt.Errorf("provision postgres: %w", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewSQLRepositoryManager(db, entries.Postgres), nil
}

// OpenSQLite opens dsn with a single connection, which serialises writers
// and keeps an in-memory database alive for the life of the handle.
func OpenSQLite(ctx context.Context, dsn string) (*SQLRepositoryManager, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return NewSQLRepositoryManager(db, entries.SQLite), nil
}

// RunMigrations sets up goose with the embedded migrations for the dialect
// and applies them.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	gooseDialect, dir := "pgx", migrations.PostgresDir
	if m.dialect == entries.SQLite {
		gooseDialect, dir = "sqlite3", migrations.SQLiteDir
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(gooseDialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, dir); err != nil {
		return err
	}
	return nil
}

// Entries returns a repository bound to the shared pool.
func (m *SQLRepositoryManager) Entries() entries.Repository {
	if m.dialect == entries.SQLite {
		return entries.NewSQLiteRepository(m.db)
	}
	return entries.NewPostgresRepository(m.db)
}

func (m *SQLRepositoryManager) DB() *sql.DB {
	return m.db
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}
