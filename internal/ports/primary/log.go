package primary

import (
	"context"
	"time"
)

// LogService defines the primary port for the queue audit log.
type LogService interface {
	// ListLogs retrieves audit entries matching the given filters, newest first.
	ListLogs(ctx context.Context, filters LogFilters) ([]*LogEntry, error)

	// EntryTimeline returns every audit entry for one queue entry, oldest first.
	EntryTimeline(ctx context.Context, entryID string) ([]*LogEntry, error)

	// PruneLogs deletes audit entries older than the specified number of days.
	PruneLogs(ctx context.Context, olderThanDays int) (int, error)
}

// LogEntry represents one audit entry at the port boundary.
type LogEntry struct {
	ID        string
	ActorID   string
	EntryID   string
	Action    string // 'create', 'update', 'delete'
	FieldName string // For updates only
	OldValue  string
	NewValue  string
	CreatedAt time.Time
}

// LogFilters contains filter options for querying logs.
type LogFilters struct {
	EntryID string
	ActorID string
	Action    string // "create", "update" or "delete"
	FieldName string // "shipped" or "override_score"; implies Action "update"
	Limit     int    // zero means DefaultLogLimit
}

// DefaultLogLimit caps ListLogs when LogFilters.Limit is zero.
const DefaultLogLimit = 50
