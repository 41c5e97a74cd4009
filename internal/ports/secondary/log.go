package secondary

import (
	"context"
	"time"
)

// Audit actions.
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
)

// Entry fields whose changes are audited.
const (
	AuditFieldShipped       = "shipped"
	AuditFieldOverrideScore = "override_score"
)

// LogWriter defines the interface for writing audit log entries.
// Implementations extract the actor from context.
type LogWriter interface {
	// LogCreate logs the creation of an entry.
	LogCreate(ctx context.Context, entryID string) error

	// LogUpdate logs an update to one entry field.
	// fieldName, oldValue, newValue describe what changed.
	LogUpdate(ctx context.Context, entryID, fieldName, oldValue, newValue string) error

	// LogDelete logs the deletion of an entry.
	LogDelete(ctx context.Context, entryID string) error
}

// AuditLogRepository defines the secondary port for audit log persistence.
type AuditLogRepository interface {
	// Create persists a new audit record. An empty ID is filled with a fresh UUID.
	Create(ctx context.Context, record *AuditRecord) error

	// List retrieves audit records, newest first.
	List(ctx context.Context, filters AuditFilters) ([]*AuditRecord, error)

	// PruneOlderThan deletes records older than the given number of days.
	PruneOlderThan(ctx context.Context, days int) (int, error)
}

// AuditRecord represents one audit log row.
type AuditRecord struct {
	ID        string
	ActorID   string
	EntryID   string
	Action    string // AuditCreate, AuditUpdate or AuditDelete
	FieldName string // updates only
	OldValue  string
	NewValue  string
	CreatedAt time.Time
}

// AuditFilters contains filter options for querying audit records.
type AuditFilters struct {
	EntryID string
	ActorID string
	Action    string
	FieldName string
	Limit     int
}
