package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/example/triage/internal/ports/primary"
	"github.com/example/triage/internal/ports/secondary"
)

var (
	auditActions = []string{secondary.AuditCreate, secondary.AuditUpdate, secondary.AuditDelete}
	auditFields  = []string{secondary.AuditFieldShipped, secondary.AuditFieldOverrideScore}
)

// LogServiceImpl serves the queue audit trail: who created, reordered,
// shipped or deleted which entry.
type LogServiceImpl struct {
	logRepo secondary.AuditLogRepository
}

// NewLogService creates a new LogService with injected dependencies.
func NewLogService(logRepo secondary.AuditLogRepository) *LogServiceImpl {
	return &LogServiceImpl{
		logRepo: logRepo,
	}
}

// ListLogs returns audit entries matching filters, newest first. A zero limit
// means primary.DefaultLogLimit. Filtering by field implies update entries.
func (s *LogServiceImpl) ListLogs(ctx context.Context, filters primary.LogFilters) ([]*primary.LogEntry, error) {
	query, err := auditQuery(filters)
	if err != nil {
		return nil, err
	}

	records, err := s.logRepo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	entries := toLogEntries(records)
	slices.SortStableFunc(entries, func(a, b *primary.LogEntry) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return entries, nil
}

// EntryTimeline returns the whole audit trail of one entry, oldest first, so
// it reads from creation to the latest change. The entry may already be
// deleted.
func (s *LogServiceImpl) EntryTimeline(ctx context.Context, entryID string) ([]*primary.LogEntry, error) {
	if entryID == "" {
		return nil, fmt.Errorf("%w: entry ID is required", ErrInvalidLogFilter)
	}

	records, err := s.logRepo.List(ctx, secondary.AuditFilters{EntryID: entryID})
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", entryID, err)
	}

	entries := toLogEntries(records)
	slices.SortStableFunc(entries, func(a, b *primary.LogEntry) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return entries, nil
}

// PruneLogs deletes audit entries older than the specified number of days.
func (s *LogServiceImpl) PruneLogs(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays < 1 {
		return 0, fmt.Errorf("retention must be at least one day, got %d", olderThanDays)
	}
	return s.logRepo.PruneOlderThan(ctx, olderThanDays)
}

func auditQuery(filters primary.LogFilters) (secondary.AuditFilters, error) {
	q := secondary.AuditFilters{
		EntryID:   filters.EntryID,
		ActorID:   filters.ActorID,
		Action:    filters.Action,
		FieldName: filters.FieldName,
		Limit:     filters.Limit,
	}

	switch {
	case q.Limit < 0:
		return q, fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidLogFilter, q.Limit)
	case q.Limit == 0:
		q.Limit = primary.DefaultLogLimit
	}

	if q.Action != "" && !slices.Contains(auditActions, q.Action) {
		return q, fmt.Errorf("%w: unknown action %q (want create, update or delete)", ErrInvalidLogFilter, q.Action)
	}
	if q.FieldName != "" {
		if !slices.Contains(auditFields, q.FieldName) {
			return q, fmt.Errorf("%w: unknown field %q (want shipped or override_score)", ErrInvalidLogFilter, q.FieldName)
		}
		if q.Action != "" && q.Action != secondary.AuditUpdate {
			return q, fmt.Errorf("%w: field %q only appears on update entries", ErrInvalidLogFilter, q.FieldName)
		}
		q.Action = secondary.AuditUpdate
	}
	return q, nil
}

func toLogEntries(records []*secondary.AuditRecord) []*primary.LogEntry {
	entries := make([]*primary.LogEntry, len(records))
	for i, r := range records {
		entries[i] = &primary.LogEntry{
			ID:        r.ID,
			ActorID:   r.ActorID,
			EntryID:   r.EntryID,
			Action:    r.Action,
			FieldName: r.FieldName,
			OldValue:  r.OldValue,
			NewValue:  r.NewValue,
			CreatedAt: r.CreatedAt,
		}
	}
	return entries
}

// Ensure LogServiceImpl implements the interface
var _ primary.LogService = (*LogServiceImpl)(nil)
