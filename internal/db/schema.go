package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the current schema, applied by migration 1.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the SQLite schema. Repository tests
// load it through GetSchemaSQL() instead of declaring their own tables, so a
// repository that references a missing column fails with "no such column".
//
// When adding new columns or tables:
//  1. Give migrationV1 its own copy of today's SchemaSQL
//  2. Append a migration in migrations.go and update SchemaSQL here
//  3. Mirror the change in the postgres adapter's schema
const SchemaSQL = `
-- Queue entries, one row per intake submission
CREATE TABLE IF NOT EXISTS priority_queue (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	athlete_type TEXT,
	season_status TEXT,
	injured TEXT,
	use_case TEXT,
	referral_source TEXT,
	repeat_customer INTEGER,
	public_influence TEXT,
	urgency TEXT,
	purchase_scope TEXT,
	represents_group TEXT,
	system_broken TEXT,
	customer_type TEXT,
	additional_notes TEXT,
	extra TEXT,
	priority_score REAL NOT NULL,
	override_score INTEGER,
	manual_override INTEGER NOT NULL DEFAULT 0,
	shipped INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_priority_queue_shipped ON priority_queue(shipped);

-- Audit trail of queue mutations
CREATE TABLE IF NOT EXISTS entry_log (
	id TEXT PRIMARY KEY,
	actor_id TEXT,
	entry_id TEXT NOT NULL,
	action TEXT NOT NULL CHECK(action IN ('create', 'update', 'delete')),
	field_name TEXT,
	old_value TEXT,
	new_value TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entry_log_entry ON entry_log(entry_id);
CREATE INDEX IF NOT EXISTS idx_entry_log_created ON entry_log(created_at);
`

// InitSchema brings db up to the latest schema version.
func InitSchema(db *sql.DB) error {
	if err := RunMigrations(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
