package sqlite

import (
	"context"

	"github.com/example/triage/internal/ctxutil"
	"github.com/example/triage/internal/ports/secondary"
)

// LogWriterAdapter implements secondary.LogWriter using AuditLogRepository.
type LogWriterAdapter struct {
	logRepo secondary.AuditLogRepository
}

// NewLogWriterAdapter creates a new LogWriterAdapter.
func NewLogWriterAdapter(logRepo secondary.AuditLogRepository) *LogWriterAdapter {
	return &LogWriterAdapter{logRepo: logRepo}
}

// LogCreate logs the creation of an entry.
func (w *LogWriterAdapter) LogCreate(ctx context.Context, entryID string) error {
	return w.writeLog(ctx, entryID, secondary.AuditCreate, "", "", "")
}

// LogUpdate logs an update to one entry field.
func (w *LogWriterAdapter) LogUpdate(ctx context.Context, entryID, fieldName, oldValue, newValue string) error {
	return w.writeLog(ctx, entryID, secondary.AuditUpdate, fieldName, oldValue, newValue)
}

// LogDelete logs the deletion of an entry.
func (w *LogWriterAdapter) LogDelete(ctx context.Context, entryID string) error {
	return w.writeLog(ctx, entryID, secondary.AuditDelete, "", "", "")
}

func (w *LogWriterAdapter) writeLog(ctx context.Context, entryID, action, fieldName, oldValue, newValue string) error {
	record := &secondary.AuditRecord{
		ActorID:   ctxutil.ActorFromContext(ctx),
		EntryID:   entryID,
		Action:    action,
		FieldName: fieldName,
		OldValue:  oldValue,
		NewValue:  newValue,
	}
	return w.logRepo.Create(ctx, record)
}

// Ensure LogWriterAdapter implements the interface
var _ secondary.LogWriter = (*LogWriterAdapter)(nil)
