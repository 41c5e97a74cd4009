package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/triage/internal/ports/secondary"
)

// AuditLogRepository implements secondary.AuditLogRepository over a slice.
type AuditLogRepository struct {
	mu      sync.Mutex
	records []secondary.AuditRecord
	now     func() time.Time
}

// NewAuditLogRepository creates an empty in-memory audit log.
func NewAuditLogRepository() *AuditLogRepository {
	return &AuditLogRepository{now: time.Now}
}

// Create appends a record.
func (r *AuditLogRepository) Create(ctx context.Context, record *secondary.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now().UTC()
	}
	r.records = append(r.records, *record)
	return nil
}

// List returns matching records, newest first.
func (r *AuditLogRepository) List(ctx context.Context, filters secondary.AuditFilters) ([]*secondary.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*secondary.AuditRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		if filters.EntryID != "" && rec.EntryID != filters.EntryID {
			continue
		}
		if filters.ActorID != "" && rec.ActorID != filters.ActorID {
			continue
		}
		if filters.Action != "" && rec.Action != filters.Action {
			continue
		}
		if filters.FieldName != "" && rec.FieldName != filters.FieldName {
			continue
		}
		out = append(out, &rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

// PruneOlderThan drops records older than the given number of days.
func (r *AuditLogRepository) PruneOlderThan(ctx context.Context, days int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().AddDate(0, 0, -days)
	kept := r.records[:0]
	pruned := 0
	for _, rec := range r.records {
		if rec.CreatedAt.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return pruned, nil
}

// Ensure AuditLogRepository implements the interface
var _ secondary.AuditLogRepository = (*AuditLogRepository)(nil)
