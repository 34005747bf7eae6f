package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/kvstore/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const maintenanceDatabase = "postgres"

// openMaintenance is a seam for tests.
var openMaintenance = func(cc pgx.ConnConfig) *sql.DB {
	return stdlib.OpenDB(cc)
}

// PostgresDatabase creates the database named in dsn when it is missing.
// It connects to the maintenance database on the same server to do so.
func PostgresDatabase(ctx context.Context, dsn string, log logging.Logger) error {
	cc, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}

	name := cc.Database
	if name == "" || name == maintenanceDatabase {
		return nil
	}

	mc := cc.Copy()
	mc.Database = maintenanceDatabase
	db := openMaintenance(*mc)
	defer db.Close()

	var one int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM pg_database WHERE datname = $1`, name).Scan(&one)
	if err == nil {
		log.Info(ctx, "database already exists", "database", name)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check database %s: %w", name, err)
	}

	log.Info(ctx, "database not found, creating", "database", name)
	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}

	log.Info(ctx, "database created", "database", name)
	return nil
}
