// Package migrations bootstraps the relational schema used by the service.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// statements are idempotent so Apply can run on every start.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name VARCHAR NOT NULL,
		email VARCHAR NOT NULL UNIQUE
	)`,
}

// Apply executes every schema statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
