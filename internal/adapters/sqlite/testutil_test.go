// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/triage/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// The pool is pinned to one connection so transactions see the same database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

var baseTime = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

// seedEntry inserts a minimal queue row and returns its ID.
func seedEntry(t *testing.T, db *sql.DB, id string, priority float64, override *int, shipped bool, updatedAt time.Time) string {
	t.Helper()
	var ov sql.NullInt64
	if override != nil {
		ov = sql.NullInt64{Int64: int64(*override), Valid: true}
	}
	_, err := db.Exec(
		`INSERT INTO priority_queue (id, name, email, priority_score, override_score, manual_override, shipped, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, "Name "+id, id+"@example.com", priority, ov, override != nil, shipped, baseTime, updatedAt,
	)
	if err != nil {
		t.Fatalf("failed to seed entry: %v", err)
	}
	return id
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
