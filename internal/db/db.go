// Package db opens the SQLite record store and owns its schema.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// FileName is the default database file name inside the config directory.
const FileName = "triage.db"

// Open opens (creating if needed) the SQLite database at path and brings its
// schema up to date.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Each new connection would get its own empty database
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := InitSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return conn, nil
}

// DefaultPath returns the database path inside configDir.
func DefaultPath(configDir string) string {
	return filepath.Join(configDir, FileName)
}
