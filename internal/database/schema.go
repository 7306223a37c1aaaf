package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema holds the idempotent bootstrap DDL. Tables are created lazily on
// first connect rather than through a migration tool, matching the small,
// fixed shape of the persisted state.
const schema = `
CREATE TABLE IF NOT EXISTS targets (
	id            BIGSERIAL PRIMARY KEY,
	url           TEXT        UNIQUE NOT NULL,
	display_name  TEXT,
	status        TEXT        NOT NULL DEFAULT 'pending',
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	processed_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_targets_status ON targets(status);

CREATE TABLE IF NOT EXISTS daily_counters (
	date             DATE    PRIMARY KEY,
	connections_sent INTEGER NOT NULL DEFAULT 0,
	messages_sent    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS jobs (
	id            UUID        PRIMARY KEY,
	mode          TEXT        NOT NULL,
	status        TEXT        NOT NULL DEFAULT 'pending',
	live_status   TEXT        NOT NULL DEFAULT '',
	dry_run       BOOLEAN     NOT NULL DEFAULT FALSE,
	total_targets INTEGER     NOT NULL DEFAULT 0,
	processed     INTEGER     NOT NULL DEFAULT 0,
	sent          INTEGER     NOT NULL DEFAULT 0,
	skipped       INTEGER     NOT NULL DEFAULT 0,
	errors        INTEGER     NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	started_at    TIMESTAMPTZ,
	completed_at  TIMESTAMPTZ,
	error_message TEXT
);

CREATE TABLE IF NOT EXISTS job_cancel_requests (
	job_id       UUID        NOT NULL,
	requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_job_cancel_requests_job_id
	ON job_cancel_requests(job_id);
`

// EnsureSchema creates the tables and indexes if they don't already exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
