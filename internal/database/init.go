package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/learning-agent/internal/config"
)

// schemaStatements create the audit table and its retention index
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS learning_runs (
		id UUID PRIMARY KEY,
		report_id TEXT NOT NULL UNIQUE,
		symbol TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL,
		state TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		trade_count INTEGER NOT NULL,
		regime TEXT NOT NULL DEFAULT '',
		deltas JSONB NOT NULL,
		reasoning TEXT[] NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS learning_runs_created_at_idx ON learning_runs (created_at)`,
}

// Initialize creates a connection pool and ensures the audit schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema applies the audit schema in one transaction
func EnsureSchema(ctx context.Context, db *DB) error {
	return db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}
