package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS credentials (
		store_key TEXT PRIMARY KEY,
		token_type TEXT NOT NULL DEFAULT '',
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		expires_in BIGINT NOT NULL DEFAULT 0,
		scope TEXT NOT NULL DEFAULT '',
		obtained_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS group_settings (
		group_id TEXT PRIMARY KEY,
		role_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS provision_log (
		id BIGINT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		group_id TEXT NOT NULL,
		role_id TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the tables used by the Postgres backend if missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	if logger != nil {
		logger.Info("database schema ensured")
	}
	return nil
}
