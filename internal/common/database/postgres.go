// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"property-chat/internal/common/config"

	_ "github.com/lib/pq"
)

// chatSchema is applied at startup when storage.driver is postgres.
const chatSchema = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id               UUID PRIMARY KEY,
	visitor_id       TEXT,
	user_id          TEXT,
	context          JSONB NOT NULL DEFAULT '{}'::jsonb,
	lead_captured    BOOLEAN NOT NULL DEFAULT FALSE,
	handoff_to_agent BOOLEAN NOT NULL DEFAULT FALSE,
	agent_id         TEXT,
	started_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	ended_at         TIMESTAMPTZ,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id         UUID PRIMARY KEY,
	session_id UUID NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
	role       TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system')),
	content    TEXT NOT NULL,
	metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages (session_id, created_at);

CREATE TABLE IF NOT EXISTS leads (
	id         UUID PRIMARY KEY,
	session_id UUID,
	source     TEXT NOT NULL DEFAULT 'chat',
	phone      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'new',
	context    JSONB NOT NULL DEFAULT '{}'::jsonb,
	crm_id     TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_session_phone ON leads (session_id, phone);
`

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// EnsureSchema creates the chat tables if they do not exist.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, chatSchema); err != nil {
		return fmt.Errorf("apply chat schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
