package cli

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/example/triage/internal/core/intake"
	"github.com/example/triage/internal/ports/primary"
)

func init() {
	color.NoColor = true
}

// mockQueueService implements primary.QueueService for testing
type mockQueueService struct {
	view      *primary.QueueView
	reorderFn func(ctx context.Context, req primary.ReorderRequest) (*primary.ReorderResponse, error)
	resolveFn func(ctx context.Context, req primary.ResolveRequest) (*primary.ResolveResponse, error)

	// Track calls for verification
	lastReorder  primary.ReorderRequest
	lastRequest  string
	lastResolve  primary.ResolveRequest
	resolveCalls int
}

func (m *mockQueueService) Load(ctx context.Context) (*primary.QueueView, error) { return m.view, nil }

func (m *mockQueueService) Snapshot() *primary.QueueView { return m.view }

func (m *mockQueueService) Reorder(ctx context.Context, req primary.ReorderRequest) (*primary.ReorderResponse, error) {
	m.lastReorder = req
	if m.reorderFn != nil {
		return m.reorderFn(ctx, req)
	}
	return &primary.ReorderResponse{Changed: []string{req.EntryID}, Queue: m.view}, nil
}

func (m *mockQueueService) RequestShipToggle(ctx context.Context, entryID string) (*primary.PendingAction, error) {
	m.lastRequest = entryID
	kind := "ship"
	for _, e := range m.view.Shipped {
		if e.ID == entryID {
			kind = "unship"
		}
	}
	return &primary.PendingAction{ID: "act-1", Kind: kind, EntryID: entryID, EntryName: "Name " + entryID, Prompt: "sure?"}, nil
}

func (m *mockQueueService) RequestDelete(ctx context.Context, entryID string) (*primary.PendingAction, error) {
	m.lastRequest = entryID
	return &primary.PendingAction{ID: "act-1", Kind: "delete", EntryID: entryID, EntryName: "Name " + entryID, Prompt: "delete?"}, nil
}

func (m *mockQueueService) Resolve(ctx context.Context, req primary.ResolveRequest) (*primary.ResolveResponse, error) {
	m.lastResolve = req
	m.resolveCalls++
	if m.resolveFn != nil {
		return m.resolveFn(ctx, req)
	}
	return &primary.ResolveResponse{Applied: req.Confirmed, Queue: m.view}, nil
}

func sampleView() *primary.QueueView {
	eight := 8
	return &primary.QueueView{
		Active: []*primary.Entry{
			{ID: "0190aaaa-1111", Name: "Jordan", Email: "jordan@example.com", PriorityScore: 2, OverrideScore: &eight, ManualOverride: true},
			{ID: "0190bbbb-2222", Name: "Casey", Email: "casey@example.com", PriorityScore: 4.25},
			{ID: "0190bbcc-3333", Name: "Riley", Email: "riley@example.com", PriorityScore: 1},
		},
		Shipped: []*primary.Entry{
			{ID: "0190dddd-4444", Name: "Avery", Email: "avery@example.com", PriorityScore: 9, Shipped: true},
		},
	}
}

func newTestAdapter(answer bool) (*QueueAdapter, *mockQueueService, *bytes.Buffer) {
	svc := &mockQueueService{view: sampleView()}
	out := &bytes.Buffer{}
	confirm := ConfirmFunc(func(string) (bool, error) { return answer, nil })
	return NewQueueAdapter(svc, out, confirm), svc, out
}

func TestQueueAdapter_List(t *testing.T) {
	adapter, _, out := newTestAdapter(true)

	adapter.List(false)
	got := out.String()
	if !strings.Contains(got, "Active (3)") {
		t.Errorf("expected active header, got:\n%s", got)
	}
	if !strings.Contains(got, "8*") {
		t.Errorf("expected manual override marker, got:\n%s", got)
	}
	if !strings.Contains(got, "4.25") {
		t.Errorf("expected priority score, got:\n%s", got)
	}
	if strings.Contains(got, "Avery") {
		t.Errorf("shipped entries should be hidden, got:\n%s", got)
	}
	if !strings.Contains(got, "1 shipped") {
		t.Errorf("expected shipped hint, got:\n%s", got)
	}

	out.Reset()
	adapter.List(true)
	if !strings.Contains(out.String(), "Avery") {
		t.Errorf("expected shipped entries, got:\n%s", out.String())
	}
}

func TestQueueAdapter_Resolve(t *testing.T) {
	adapter, _, _ := newTestAdapter(true)

	tests := []struct {
		name      string
		partition string
		ref       string
		wantID    string
		wantErr   string
	}{
		{"rank", PartitionActive, "2", "0190bbbb-2222", ""},
		{"unique prefix", PartitionActive, "0190aa", "0190aaaa-1111", ""},
		{"shipped rank", PartitionShipped, "1", "0190dddd-4444", ""},
		{"ambiguous prefix", PartitionActive, "0190bb", "", "more than one"},
		{"rank out of range", PartitionActive, "4", "", "no entry at #4"},
		{"no match", PartitionActive, "zzz", "", "no active entry"},
		{"empty", PartitionActive, " ", "", "empty"},
		{"bad partition", "archived", "1", "", "unknown partition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := adapter.Resolve(tt.partition, tt.ref)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("Resolve() = %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestQueueAdapter_ListedIDsResolve(t *testing.T) {
	// Entries created within the same minute share their first 8 hex digits
	svc := &mockQueueService{view: &primary.QueueView{
		Active: []*primary.Entry{
			{ID: "01928374-5a6b-7c8d-9e0f-111111111111", Name: "Ada", Email: "ada@example.com"},
			{ID: "01928374-5a7c-7c8d-9e0f-222222222222", Name: "Bo", Email: "bo@example.com"},
			{ID: "01928399-0000-7c8d-9e0f-333333333333", Name: "Cy", Email: "cy@example.com"},
		},
	}}
	out := &bytes.Buffer{}
	adapter := NewQueueAdapter(svc, out, AlwaysConfirm)

	adapter.List(false)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	rows := lines[3:]
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got:\n%s", out.String())
	}
	for i, row := range rows {
		fields := strings.Fields(row)
		shown := fields[len(fields)-1]
		got, err := adapter.Resolve(PartitionActive, shown)
		if err != nil {
			t.Fatalf("Resolve(%q) for row %d error = %v", shown, i+1, err)
		}
		if got.ID != svc.view.Active[i].ID {
			t.Errorf("Resolve(%q) = %s, want %s", shown, got.ID, svc.view.Active[i].ID)
		}
	}
	if !strings.HasSuffix(rows[2], " 01928399") {
		t.Errorf("unique entry should keep the short prefix, got %q", rows[2])
	}
}

func TestDisplayIDs(t *testing.T) {
	got := displayIDs([]string{"0190aaaa-1111", "0190aaab-2222", "0190ccc", "0190dddd-4444", "0190dddd-4444"})
	want := []string{"0190aaaa", "0190aaab", "0190ccc", "0190dddd", "0190dddd"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("displayIDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	got = displayIDs([]string{"01928374-5a6b", "01928374-5a7c"})
	if got[0] != "01928374-5a6" || got[1] != "01928374-5a7" {
		t.Errorf("displayIDs() = %v, want the shortest distinguishing prefixes", got)
	}
}

func TestQueueAdapter_ResolveNumericIDPrefix(t *testing.T) {
	svc := &mockQueueService{view: &primary.QueueView{
		Active: []*primary.Entry{{ID: "01928374-5a6b", Name: "Ada"}},
	}}
	adapter := NewQueueAdapter(svc, &bytes.Buffer{}, AlwaysConfirm)

	got, err := adapter.Resolve(PartitionActive, "01928374")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Name != "Ada" {
		t.Errorf("Resolve() = %s, want Ada", got.Name)
	}
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestQueueAdapter_ListAlignsColoredScores(t *testing.T) {
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = true })

	adapter, _, out := newTestAdapter(true)
	adapter.List(false)

	raw := out.String()
	if !strings.Contains(raw, "\x1b[") {
		t.Fatalf("expected colored output, got %q", raw)
	}
	lines := strings.Split(ansiEscape.ReplaceAllString(raw, ""), "\n")
	header := lines[1]
	nameCol := strings.Index(header, "NAME")
	for _, line := range lines[3:6] {
		for _, name := range []string{"Jordan", "Casey", "Riley"} {
			if i := strings.Index(line, name); i >= 0 && i != nameCol {
				t.Errorf("%s starts at column %d, want %d:\n%s", name, i, nameCol, raw)
			}
		}
	}
}

func TestQueueAdapter_Move(t *testing.T) {
	adapter, svc, out := newTestAdapter(true)

	_, err := adapter.Move(context.Background(), PartitionActive, "3", 1)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if svc.lastReorder.EntryID != "0190bbcc-3333" || svc.lastReorder.Position != 0 {
		t.Errorf("reorder request = %+v, want Riley at position 0", svc.lastReorder)
	}
	if !strings.Contains(out.String(), "Moved Riley to #1") {
		t.Errorf("unexpected output: %s", out.String())
	}

	svc.reorderFn = func(ctx context.Context, req primary.ReorderRequest) (*primary.ReorderResponse, error) {
		return &primary.ReorderResponse{Queue: svc.view}, nil
	}
	out.Reset()
	if _, err := adapter.Move(context.Background(), PartitionActive, "1", 1); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if !strings.Contains(out.String(), "already at #1") {
		t.Errorf("unexpected output: %s", out.String())
	}

	boom := errors.New("store down")
	svc.reorderFn = func(ctx context.Context, req primary.ReorderRequest) (*primary.ReorderResponse, error) {
		return nil, boom
	}
	if _, err := adapter.Move(context.Background(), PartitionActive, "1", 2); !errors.Is(err, boom) {
		t.Errorf("Move() error = %v, want %v", err, boom)
	}
}

func TestQueueAdapter_ShipConfirmed(t *testing.T) {
	adapter, svc, out := newTestAdapter(true)

	resp, err := adapter.Ship(context.Background(), "1")
	if err != nil {
		t.Fatalf("Ship() error = %v", err)
	}
	if !resp.Applied {
		t.Error("expected action applied")
	}
	if svc.lastRequest != "0190aaaa-1111" || !svc.lastResolve.Confirmed {
		t.Errorf("request=%s resolve=%+v", svc.lastRequest, svc.lastResolve)
	}
	if !strings.Contains(out.String(), "Shipped Name 0190aaaa-1111") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestQueueAdapter_Declined(t *testing.T) {
	adapter, svc, out := newTestAdapter(false)

	_, err := adapter.Delete(context.Background(), "0190dd")
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Delete() error = %v, want ErrCancelled", err)
	}
	if svc.lastRequest != "0190dddd-4444" {
		t.Errorf("delete should fall back to the shipped partition, got %s", svc.lastRequest)
	}
	if svc.lastResolve.Confirmed {
		t.Error("declined prompt must resolve as cancelled")
	}
	if !strings.Contains(out.String(), "Cancelled.") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestQueueAdapter_PromptFailureReleasesAction(t *testing.T) {
	svc := &mockQueueService{view: sampleView()}
	eof := errors.New("EOF")
	adapter := NewQueueAdapter(svc, &bytes.Buffer{}, ConfirmFunc(func(string) (bool, error) { return false, eof }))

	_, err := adapter.Unship(context.Background(), "1")
	if !errors.Is(err, eof) {
		t.Fatalf("Unship() error = %v, want %v", err, eof)
	}
	if svc.resolveCalls != 1 || svc.lastResolve.Confirmed {
		t.Errorf("expected one cancelling resolve, got %d calls, last %+v", svc.resolveCalls, svc.lastResolve)
	}
}

func TestQueueAdapter_UnshipRequiresShipped(t *testing.T) {
	adapter, _, _ := newTestAdapter(true)

	if _, err := adapter.Unship(context.Background(), "0190aa"); err == nil {
		t.Error("expected error for an active entry")
	}
}

// mockIntakeService implements primary.IntakeService for testing
type mockIntakeService struct {
	err  error
	last intake.Answers
}

func (m *mockIntakeService) Submit(ctx context.Context, req primary.SubmitRequest) (*primary.SubmitResponse, error) {
	m.last = req.Answers
	if m.err != nil {
		return nil, m.err
	}
	return &primary.SubmitResponse{EntryID: "0190ffff", PriorityScore: 6.5}, nil
}

func TestIntakeAdapter_Submit(t *testing.T) {
	svc := &mockIntakeService{}
	out := &bytes.Buffer{}
	adapter := NewIntakeAdapter(svc, out)

	_, err := adapter.Submit(context.Background(), intake.Answers{Name: "Pat", Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !strings.Contains(out.String(), "Thanks Pat") || !strings.Contains(out.String(), "6.50") {
		t.Errorf("unexpected output: %s", out.String())
	}

	svc.err = errors.New("scoring service unavailable")
	out.Reset()
	if _, err := adapter.Submit(context.Background(), intake.Answers{Name: "Pat"}); err == nil {
		t.Error("expected error")
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be printed on failure, got %q", out.String())
	}
}
