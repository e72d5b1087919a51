package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations run in order on every startup. Statements are idempotent so a
// restart against an up-to-date schema is a no-op.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                 UUID PRIMARY KEY,
		name               TEXT NOT NULL,
		email              TEXT NOT NULL,
		password_hash      TEXT NOT NULL,
		role               TEXT NOT NULL DEFAULT 'staff',
		active             BOOLEAN NOT NULL DEFAULT TRUE,
		mfa_enabled        BOOLEAN NOT NULL DEFAULT FALSE,
		mfa_secret         TEXT,
		mfa_pending_secret TEXT,
		otp_code           TEXT,
		otp_expires_at     TIMESTAMPTZ,
		last_login_at      TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email))`,
	`CREATE TABLE IF NOT EXISTS password_reset_tokens (
		token      TEXT PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS password_reset_tokens_user_idx ON password_reset_tokens (user_id)`,
	`CREATE TABLE IF NOT EXISTS departments (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id            UUID PRIMARY KEY,
		department_id UUID NOT NULL REFERENCES departments (id),
		activity_type TEXT NOT NULL,
		performed_by  TEXT,
		started_at    TIMESTAMPTZ,
		finished_at   TIMESTAMPTZ,
		status        TEXT NOT NULL DEFAULT 'completed',
		shift         TEXT,
		details       JSONB,
		metadata      JSONB,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS activities_department_idx ON activities (department_id, created_at DESC)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	for _, stmt := range migrations {
		ctxExec, cancel := context.WithTimeout(ctx, timeout)
		_, err := pool.Exec(ctxExec, stmt)
		cancel()
		if err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
