package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration is one forward-only schema change.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *sql.Tx) error
}

// migrations is the ordered schema history. New changes append a version
// and update SchemaSQL to match.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_schema",
		Up:      migrationV1,
	},
}

func createVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// RunMigrations executes all pending migrations
func RunMigrations(db *sql.DB) error {
	if err := createVersionTable(db); err != nil {
		return err
	}

	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		slog.Info("running migration", "version", migration.Version, "name", migration.Name)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates the queue and audit tables.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(SchemaSQL)
	return err
}
