package storage

import (
	"context"
	"fmt"
)

var schema = map[string][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS user_settings (
			id          UUID PRIMARY KEY,
			user_id     TEXT NOT NULL UNIQUE,
			version     BIGINT NOT NULL,
			document    JSONB NOT NULL,
			created_at  BIGINT NOT NULL,
			updated_at  BIGINT NOT NULL
		)`,
	},
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS user_settings (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL UNIQUE,
			version     INTEGER NOT NULL,
			document    TEXT NOT NULL,
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		)`,
	},
}

// Migrate creates the tables this service needs. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	statements, ok := schema[db.driver]
	if !ok {
		return fmt.Errorf("%w: no schema for driver %q", ErrUnsupportedDatabase, db.driver)
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}
