package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/triage/internal/core/intake"
	"github.com/example/triage/internal/core/queue"
	"github.com/example/triage/internal/ports/primary"
	"github.com/example/triage/internal/ports/secondary"
)

// ExportServiceImpl implements the ExportService interface.
type ExportServiceImpl struct {
	entryRepo secondary.EntryRepository
	sink      secondary.SnapshotSink
	store     storeCaller
	now       func() time.Time
}

// NewExportService creates a new ExportService with injected dependencies.
func NewExportService(entryRepo secondary.EntryRepository, sink secondary.SnapshotSink, storeTimeout time.Duration) *ExportServiceImpl {
	return &ExportServiceImpl{
		entryRepo: entryRepo,
		sink:      sink,
		store:     storeCaller{timeout: storeTimeout, observer: NopObserver{}},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// snapshotDoc is the exported JSON document.
type snapshotDoc struct {
	ExportedAt time.Time       `json:"exported_at"`
	Active     []snapshotEntry `json:"active"`
	Shipped    []snapshotEntry `json:"shipped"`
}

type snapshotEntry struct {
	ID             string         `json:"id"`
	Answers        intake.Answers `json:"answers"`
	PriorityScore  float64        `json:"priority_score"`
	OverrideScore  *int           `json:"override_score"`
	ManualOverride bool           `json:"manual_override"`
	EffectiveScore float64        `json:"effective_score"`
	Shipped        bool           `json:"shipped"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Export writes both partitions, in display order, to the sink.
func (s *ExportServiceImpl) Export(ctx context.Context) (*primary.ExportResult, error) {
	var records []*secondary.EntryRecord
	err := s.store.call(ctx, "list", func(ctx context.Context) error {
		var err error
		records, err = s.entryRepo.List(ctx, secondary.EntryFilters{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	byID := make(map[string]*secondary.EntryRecord, len(records))
	entries := make([]queue.Entry, len(records))
	for i, r := range records {
		byID[r.ID] = r
		entries[i] = recordToEntry(r)
	}
	q := queue.Load(entries)

	doc := snapshotDoc{
		ExportedAt: s.now(),
		Active:     make([]snapshotEntry, 0, len(q.Active)),
		Shipped:    make([]snapshotEntry, 0, len(q.Shipped)),
	}
	for _, e := range q.Active {
		doc.Active = append(doc.Active, toSnapshotEntry(byID[e.ID], e))
	}
	for _, e := range q.Shipped {
		doc.Shipped = append(doc.Shipped, toSnapshotEntry(byID[e.ID], e))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.sink.Write(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	return &primary.ExportResult{
		ExportedAt: doc.ExportedAt,
		Active:     len(doc.Active),
		Shipped:    len(doc.Shipped),
		Bytes:      len(data),
	}, nil
}

func toSnapshotEntry(r *secondary.EntryRecord, e queue.Entry) snapshotEntry {
	return snapshotEntry{
		ID:             r.ID,
		Answers:        r.Answers,
		PriorityScore:  r.PriorityScore,
		OverrideScore:  r.OverrideScore,
		ManualOverride: r.ManualOverride,
		EffectiveScore: e.EffectiveScore(),
		Shipped:        r.Shipped,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// Ensure ExportServiceImpl implements the interface
var _ primary.ExportService = (*ExportServiceImpl)(nil)
