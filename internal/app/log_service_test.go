package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/example/triage/internal/ports/primary"
	"github.com/example/triage/internal/ports/secondary"
)

// mockAuditLogRepository implements secondary.AuditLogRepository for testing.
type mockAuditLogRepository struct {
	logs      []*secondary.AuditRecord
	prunedFor int
}

func (m *mockAuditLogRepository) Create(ctx context.Context, record *secondary.AuditRecord) error {
	m.logs = append(m.logs, record)
	return nil
}

func (m *mockAuditLogRepository) List(ctx context.Context, filters secondary.AuditFilters) ([]*secondary.AuditRecord, error) {
	var result []*secondary.AuditRecord
	for _, l := range m.logs {
		if filters.EntryID != "" && l.EntryID != filters.EntryID {
			continue
		}
		if filters.ActorID != "" && l.ActorID != filters.ActorID {
			continue
		}
		if filters.Action != "" && l.Action != filters.Action {
			continue
		}
		if filters.FieldName != "" && l.FieldName != filters.FieldName {
			continue
		}
		result = append(result, l)
	}

	// Apply limit
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}

	return result, nil
}

func (m *mockAuditLogRepository) PruneOlderThan(ctx context.Context, days int) (int, error) {
	m.prunedFor = days
	return len(m.logs), nil
}

func TestLogService_ListLogs(t *testing.T) {
	repo := &mockAuditLogRepository{logs: []*secondary.AuditRecord{
		{ID: "1", EntryID: "a", Action: "create", CreatedAt: time.Now()},
		{ID: "2", EntryID: "a", Action: "update", FieldName: "shipped", OldValue: "false", NewValue: "true"},
		{ID: "3", EntryID: "b", Action: "delete"},
	}}
	service := NewLogService(repo)

	logs, err := service.ListLogs(context.Background(), primary.LogFilters{EntryID: "a"})
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("len = %d, want 2", len(logs))
	}
	if logs[1].FieldName != "shipped" || logs[1].NewValue != "true" {
		t.Errorf("logs[1] = %+v", logs[1])
	}

	limited, _ := service.ListLogs(context.Background(), primary.LogFilters{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("limited len = %d, want 1", len(limited))
	}
}

func TestLogService_ListLogsNewestFirstWithDefaultLimit(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := &mockAuditLogRepository{}
	for i := 0; i < primary.DefaultLogLimit+10; i++ {
		repo.logs = append(repo.logs, &secondary.AuditRecord{
			ID:        string(rune('A' + i%26)),
			EntryID:   "a",
			Action:    secondary.AuditUpdate,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	service := NewLogService(repo)

	logs, err := service.ListLogs(context.Background(), primary.LogFilters{})
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(logs) != primary.DefaultLogLimit {
		t.Fatalf("len = %d, want default limit %d", len(logs), primary.DefaultLogLimit)
	}
	for i := 1; i < len(logs); i++ {
		if logs[i].CreatedAt.After(logs[i-1].CreatedAt) {
			t.Fatalf("logs[%d] at %v is newer than logs[%d] at %v", i, logs[i].CreatedAt, i-1, logs[i-1].CreatedAt)
		}
	}
}

func TestLogService_ListLogsByField(t *testing.T) {
	repo := &mockAuditLogRepository{logs: []*secondary.AuditRecord{
		{ID: "1", EntryID: "a", Action: secondary.AuditCreate},
		{ID: "2", EntryID: "a", Action: secondary.AuditUpdate, FieldName: secondary.AuditFieldShipped, NewValue: "true"},
		{ID: "3", EntryID: "a", Action: secondary.AuditUpdate, FieldName: secondary.AuditFieldOverrideScore, NewValue: "4"},
	}}
	service := NewLogService(repo)

	logs, err := service.ListLogs(context.Background(), primary.LogFilters{FieldName: "shipped"})
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != "2" {
		t.Errorf("ListLogs(field=shipped) = %+v, want only record 2", logs)
	}
}

func TestLogService_ListLogsRejectsBadFilters(t *testing.T) {
	service := NewLogService(&mockAuditLogRepository{})

	tests := []struct {
		name    string
		filters primary.LogFilters
	}{
		{"unknown action", primary.LogFilters{Action: "ship"}},
		{"unknown field", primary.LogFilters{FieldName: "email"}},
		{"field on create", primary.LogFilters{Action: "create", FieldName: "shipped"}},
		{"negative limit", primary.LogFilters{Limit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ListLogs(context.Background(), tt.filters)
			if !errors.Is(err, ErrInvalidLogFilter) {
				t.Errorf("ListLogs(%+v) error = %v, want ErrInvalidLogFilter", tt.filters, err)
			}
		})
	}
}

func TestLogService_EntryTimeline(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := &mockAuditLogRepository{logs: []*secondary.AuditRecord{
		{ID: "3", EntryID: "a", Action: secondary.AuditDelete, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "1", EntryID: "a", Action: secondary.AuditCreate, CreatedAt: base},
		{ID: "x", EntryID: "b", Action: secondary.AuditCreate, CreatedAt: base},
		{ID: "2", EntryID: "a", Action: secondary.AuditUpdate, FieldName: secondary.AuditFieldShipped, CreatedAt: base.Add(time.Hour)},
	}}
	service := NewLogService(repo)

	logs, err := service.EntryTimeline(context.Background(), "a")
	if err != nil {
		t.Fatalf("EntryTimeline failed: %v", err)
	}
	var got []string
	for _, l := range logs {
		got = append(got, l.ID)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, got); diff != "" {
		t.Errorf("EntryTimeline() order mismatch (-want +got):\n%s", diff)
	}

	if _, err := service.EntryTimeline(context.Background(), ""); !errors.Is(err, ErrInvalidLogFilter) {
		t.Errorf("EntryTimeline(\"\") error = %v, want ErrInvalidLogFilter", err)
	}
}

func TestLogService_PruneLogs(t *testing.T) {
	repo := &mockAuditLogRepository{}
	service := NewLogService(repo)

	if _, err := service.PruneLogs(context.Background(), 0); err == nil {
		t.Error("expected error for zero retention")
	}
	if _, err := service.PruneLogs(context.Background(), 30); err != nil {
		t.Fatalf("PruneLogs failed: %v", err)
	}
	if repo.prunedFor != 30 {
		t.Errorf("prunedFor = %d, want 30", repo.prunedFor)
	}
}
