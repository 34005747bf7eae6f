// Package migrations embeds the versioned goose DDL for the SQL backends.
// Each dialect lives in its own directory inside Migrations.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
