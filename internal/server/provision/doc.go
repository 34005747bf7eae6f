// Package provision creates the backing resources the server needs before it
// starts listening: the Spanner instance, database and kv_store table, or the
// PostgreSQL database. Every step checks for existence first, so running it
// against an already provisioned environment is a no-op.
package provision
