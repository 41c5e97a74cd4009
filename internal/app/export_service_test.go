package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type mockSnapshotSink struct {
	data []byte
	err  error
}

func (m *mockSnapshotSink) Write(ctx context.Context, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func TestExportService_Export(t *testing.T) {
	override := 9
	pinned := newRecord("p", "Pat", 1)
	pinned.OverrideScore = &override
	pinned.ManualOverride = true
	repo := newMockEntryRepository(
		newRecord("a", "Ann", 5),
		pinned,
		shippedRecord("s", "Sam", 2),
	)
	sink := &mockSnapshotSink{}
	service := NewExportService(repo, sink, 0)

	result, err := service.Export(context.Background())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if result.Active != 2 || result.Shipped != 1 || result.Bytes != len(sink.data) {
		t.Errorf("result = %+v", result)
	}

	var doc struct {
		Active []struct {
			ID             string         `json:"id"`
			EffectiveScore float64        `json:"effective_score"`
			Answers        map[string]any `json:"answers"`
		} `json:"active"`
		Shipped []struct {
			ID string `json:"id"`
		} `json:"shipped"`
	}
	if err := json.Unmarshal(sink.data, &doc); err != nil {
		t.Fatalf("snapshot is not JSON: %v", err)
	}
	var ids []string
	for _, e := range doc.Active {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]string{"p", "a"}, ids); diff != "" {
		t.Errorf("active order mismatch (-want +got):\n%s", diff)
	}
	if doc.Active[0].EffectiveScore != 9 || doc.Active[0].Answers["name"] != "Pat" {
		t.Errorf("active[0] = %+v", doc.Active[0])
	}
	if len(doc.Shipped) != 1 || doc.Shipped[0].ID != "s" {
		t.Errorf("shipped = %+v", doc.Shipped)
	}
}

func TestExportService_SinkFailure(t *testing.T) {
	repo := newMockEntryRepository(newRecord("a", "Ann", 5))
	service := NewExportService(repo, &mockSnapshotSink{err: errors.New("bucket not found")}, 0)

	if _, err := service.Export(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
