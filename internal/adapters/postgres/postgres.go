// Package postgres opens a PostgreSQL record store. The repositories are the
// shared SQL implementations from the sqlite package running with the
// PostgreSQL dialect.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/example/triage/internal/adapters/sqlite"
)

// SchemaSQL is the PostgreSQL form of the record store schema.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS priority_queue (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	athlete_type TEXT,
	season_status TEXT,
	injured TEXT,
	use_case TEXT,
	referral_source TEXT,
	repeat_customer BOOLEAN,
	public_influence TEXT,
	urgency TEXT,
	purchase_scope TEXT,
	represents_group TEXT,
	system_broken TEXT,
	customer_type TEXT,
	additional_notes TEXT,
	extra TEXT,
	priority_score DOUBLE PRECISION NOT NULL,
	override_score INTEGER,
	manual_override BOOLEAN NOT NULL DEFAULT FALSE,
	shipped BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_priority_queue_shipped ON priority_queue(shipped);

CREATE TABLE IF NOT EXISTS entry_log (
	id TEXT PRIMARY KEY,
	actor_id TEXT,
	entry_id TEXT NOT NULL,
	action TEXT NOT NULL CHECK (action IN ('create', 'update', 'delete')),
	field_name TEXT,
	old_value TEXT,
	new_value TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entry_log_entry ON entry_log(entry_id);
CREATE INDEX IF NOT EXISTS idx_entry_log_created ON entry_log(created_at);
`

// Open connects to dsn through the pgx driver and creates the schema if needed.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSchema applies SchemaSQL. Every statement is idempotent.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("failed to create postgres schema: %w", err)
	}
	return nil
}

// NewEntryRepository returns the entry repository for a PostgreSQL database.
func NewEntryRepository(db *sql.DB) *sqlite.EntryRepository {
	return sqlite.NewEntryRepositoryWithDialect(db, sqlite.DialectPostgres)
}

// NewAuditLogRepository returns the audit log repository for a PostgreSQL database.
func NewAuditLogRepository(db *sql.DB) *sqlite.AuditLogRepository {
	return sqlite.NewAuditLogRepositoryWithDialect(db, sqlite.DialectPostgres)
}
