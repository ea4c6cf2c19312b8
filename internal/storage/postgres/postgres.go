package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	id             TEXT PRIMARY KEY,
	workspace_name TEXT NOT NULL DEFAULT '',
	workspace_icon TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS integrations (
	bot_id           TEXT PRIMARY KEY,
	workspace_id     TEXT NOT NULL REFERENCES workspaces (id),
	access_token     TEXT NOT NULL,
	refresh_token    TEXT NOT NULL,
	token_expires_at TIMESTAMPTZ,
	database_id      TEXT,
	parent_page_id   TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_integrations_workspace_id ON integrations (workspace_id);
CREATE INDEX IF NOT EXISTS idx_integrations_database_id ON integrations (database_id);
CREATE INDEX IF NOT EXISTS idx_integrations_token_expires_at ON integrations (token_expires_at);
`

// Migrate applies the schema. Statements are idempotent so this runs on
// every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
