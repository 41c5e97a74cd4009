package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/triage/internal/core/intake"
	"github.com/example/triage/internal/ports/primary"
	"github.com/example/triage/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockEntryRepository implements secondary.EntryRepository for testing.
// failUpdateAt makes the Nth Update call (1-based) return updateErr.
type mockEntryRepository struct {
	mu           sync.Mutex
	entries      map[string]*secondary.EntryRecord
	nextID       int
	insertErr    error
	updateErr    error
	failUpdateAt int
	deleteErr    error
	listErr      error
	listErrs     []error // consumed one per List call before listErr
	updateCalls  int
	deleteCalls  int
	listCalls    int
	updated      []secondary.EntryPatch
}

func newMockEntryRepository(records ...*secondary.EntryRecord) *mockEntryRepository {
	m := &mockEntryRepository{
		entries: make(map[string]*secondary.EntryRecord),
		nextID:  1,
	}
	for _, r := range records {
		m.entries[r.ID] = r
	}
	return m
}

func (m *mockEntryRepository) Insert(ctx context.Context, entry *secondary.EntryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if entry.ID == "" {
		entry.ID = fmt.Sprintf("entry-%03d", m.nextID)
		m.nextID++
	}
	copied := *entry
	m.entries[entry.ID] = &copied
	return nil
}

func (m *mockEntryRepository) GetByID(ctx context.Context, id string) (*secondary.EntryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.entries[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, fmt.Errorf("entry %s: %w", id, secondary.ErrNotFound)
}

func (m *mockEntryRepository) Update(ctx context.Context, patch secondary.EntryPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil && (m.failUpdateAt == 0 || m.failUpdateAt == m.updateCalls) {
		return m.updateErr
	}
	return m.applyLocked(patch)
}

func (m *mockEntryRepository) applyLocked(patch secondary.EntryPatch) error {
	r, ok := m.entries[patch.EntryID]
	if !ok {
		return fmt.Errorf("entry %s: %w", patch.EntryID, secondary.ErrNotFound)
	}
	if patch.Shipped != nil {
		r.Shipped = *patch.Shipped
	}
	if patch.OverrideScore != nil {
		v := *patch.OverrideScore
		r.OverrideScore = &v
	}
	if patch.ManualOverride != nil {
		r.ManualOverride = *patch.ManualOverride
	}
	r.UpdatedAt = patch.UpdatedAt
	m.updated = append(m.updated, patch)
	return nil
}

func (m *mockEntryRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.entries[id]; !ok {
		return fmt.Errorf("entry %s: %w", id, secondary.ErrNotFound)
	}
	delete(m.entries, id)
	return nil
}

func (m *mockEntryRepository) List(ctx context.Context, filters secondary.EntryFilters) ([]*secondary.EntryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if len(m.listErrs) > 0 {
		err := m.listErrs[0]
		m.listErrs = m.listErrs[1:]
		if err != nil {
			return nil, err
		}
	} else if m.listErr != nil {
		return nil, m.listErr
	}
	var result []*secondary.EntryRecord
	for _, r := range m.entries {
		if filters.Shipped != nil && r.Shipped != *filters.Shipped {
			continue
		}
		copied := *r
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// mockBatchEntryRepository adds all-or-nothing batch updates.
type mockBatchEntryRepository struct {
	*mockEntryRepository
	batchErr   error
	batchCalls int
}

func (m *mockBatchEntryRepository) UpdateBatch(ctx context.Context, patches []secondary.EntryPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.batchErr != nil {
		return m.batchErr
	}
	for _, p := range patches {
		if _, ok := m.entries[p.EntryID]; !ok {
			return fmt.Errorf("entry %s: %w", p.EntryID, secondary.ErrNotFound)
		}
	}
	for _, p := range patches {
		if err := m.applyLocked(p); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ secondary.EntryRepository = (*mockEntryRepository)(nil)
	_ secondary.BatchUpdater    = (*mockBatchEntryRepository)(nil)
)

// mockLogWriter implements secondary.LogWriter for testing.
type mockLogWriter struct {
	mu      sync.Mutex
	entries []string
	err     error
}

func (m *mockLogWriter) LogCreate(ctx context.Context, entryID string) error {
	return m.record("create " + entryID)
}

func (m *mockLogWriter) LogUpdate(ctx context.Context, entryID, fieldName, oldValue, newValue string) error {
	return m.record(fmt.Sprintf("update %s %s %s->%s", entryID, fieldName, oldValue, newValue))
}

func (m *mockLogWriter) LogDelete(ctx context.Context, entryID string) error {
	return m.record("delete " + entryID)
}

func (m *mockLogWriter) record(s string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, s)
	return nil
}

// mockScorer implements secondary.Scorer for testing.
type mockScorer struct {
	score float64
	err   error
	calls int
	last  intake.Answers
}

func (m *mockScorer) Score(ctx context.Context, answers intake.Answers) (float64, error) {
	m.calls++
	m.last = answers
	if m.err != nil {
		return 0, m.err
	}
	return m.score, nil
}

// recordingObserver implements Observer and keeps every event.
type recordingObserver struct {
	mu        sync.Mutex
	mutations []string
	rollbacks []string
	storeOps  []string
}

func (o *recordingObserver) MutationFinished(action, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mutations = append(o.mutations, action+":"+outcome)
}

func (o *recordingObserver) RolledBack(mode string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rollbacks = append(o.rollbacks, mode)
}

func (o *recordingObserver) StoreCall(op string, elapsed time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.storeOps = append(o.storeOps, op)
}

func (o *recordingObserver) Scored(elapsed time.Duration, err error) {}

// ============================================================================
// Fixtures
// ============================================================================

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newRecord(id, name string, priority float64) *secondary.EntryRecord {
	return &secondary.EntryRecord{
		ID:            id,
		Answers:       intake.Answers{Name: name, Email: id + "@example.com"},
		PriorityScore: priority,
		CreatedAt:     fixedNow.Add(-time.Hour),
		UpdatedAt:     fixedNow.Add(-time.Hour),
	}
}

func shippedRecord(id, name string, priority float64) *secondary.EntryRecord {
	r := newRecord(id, name, priority)
	r.Shipped = true
	return r
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("action-%d", n)
	}
}

func entryIDs(entries []*primary.Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
