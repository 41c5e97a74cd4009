package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with a small development queue: four
// active entries (one placed by hand) and one shipped entry.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC()

	entries := []struct {
		id, name, email, athlete, urgency string
		score                             float64
		override                          sql.NullInt64
		shipped                           bool
	}{
		{"SEED-001", "Jordan Reyes", "jordan@example.com", "pro", "high", 9.35, sql.NullInt64{}, false},
		{"SEED-002", "Casey Moore", "casey@example.com", "college", "moderate", 4.2, sql.NullInt64{Int64: 12, Valid: true}, false},
		{"SEED-003", "Riley Chen", "riley@example.com", "retired", "low", 3.25, sql.NullInt64{}, false},
		{"SEED-004", "Morgan Diaz", "morgan@example.com", "none", "low", 1.0, sql.NullInt64{}, false},
		{"SEED-005", "Avery Park", "avery@example.com", "pro", "code_red", 11.7, sql.NullInt64{}, true},
	}
	for i, e := range entries {
		at := now.Add(-time.Duration(i) * time.Minute)
		if _, err := database.Exec(
			`INSERT INTO priority_queue (id, name, email, athlete_type, urgency, priority_score, override_score, manual_override, shipped, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.id, e.name, e.email, e.athlete, e.urgency, e.score, e.override, e.override.Valid, e.shipped, at, at,
		); err != nil {
			return fmt.Errorf("seed entries: %w", err)
		}
	}
	return nil
}
