// Package database owns the connection pool setup and the schema
// migrations applied by cmd/migrate.
package database
