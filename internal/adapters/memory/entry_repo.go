// Package memory contains in-process implementations of the record store
// ports. State lives for the life of the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/triage/internal/ports/secondary"
)

// Fault makes a repository operation fail. It is consulted before the
// operation touches any state; returning nil lets the call proceed.
type Fault func(op, entryID string) error

// EntryRepository implements secondary.EntryRepository and
// secondary.BatchUpdater over a map.
type EntryRepository struct {
	mu      sync.Mutex
	entries map[string]secondary.EntryRecord
	fault   Fault
	now     func() time.Time
}

// NewEntryRepository creates an empty in-memory entry repository.
func NewEntryRepository() *EntryRepository {
	return &EntryRepository{
		entries: make(map[string]secondary.EntryRecord),
		now:     time.Now,
	}
}

// SetFault installs f as the fault hook. nil removes it.
func (r *EntryRepository) SetFault(f Fault) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fault = f
}

func (r *EntryRepository) check(ctx context.Context, op, entryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.fault != nil {
		return r.fault(op, entryID)
	}
	return nil
}

// Insert persists a new entry.
func (r *EntryRepository) Insert(ctx context.Context, entry *secondary.EntryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx, "insert", entry.ID); err != nil {
		return err
	}
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate entry ID: %w", err)
		}
		entry.ID = id.String()
	}
	if _, exists := r.entries[entry.ID]; exists {
		return fmt.Errorf("entry %s already exists", entry.ID)
	}
	now := r.now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}
	r.entries[entry.ID] = cloneRecord(*entry)
	return nil
}

// GetByID retrieves an entry by its ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*secondary.EntryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx, "get", id); err != nil {
		return nil, err
	}
	rec, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", id, secondary.ErrNotFound)
	}
	out := cloneRecord(rec)
	return &out, nil
}

// Update applies a field-level patch to one entry.
func (r *EntryRepository) Update(ctx context.Context, patch secondary.EntryPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx, "update", patch.EntryID); err != nil {
		return err
	}
	return r.applyLocked(patch)
}

// UpdateBatch applies every patch or none.
func (r *EntryRepository) UpdateBatch(ctx context.Context, patches []secondary.EntryPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range patches {
		if err := r.check(ctx, "update_batch", p.EntryID); err != nil {
			return err
		}
		if _, ok := r.entries[p.EntryID]; !ok {
			return fmt.Errorf("entry %s: %w", p.EntryID, secondary.ErrNotFound)
		}
	}
	for _, p := range patches {
		if err := r.applyLocked(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *EntryRepository) applyLocked(patch secondary.EntryPatch) error {
	rec, ok := r.entries[patch.EntryID]
	if !ok {
		return fmt.Errorf("entry %s: %w", patch.EntryID, secondary.ErrNotFound)
	}
	if patch.Shipped != nil {
		rec.Shipped = *patch.Shipped
	}
	if patch.OverrideScore != nil {
		v := *patch.OverrideScore
		rec.OverrideScore = &v
	}
	if patch.ManualOverride != nil {
		rec.ManualOverride = *patch.ManualOverride
	}
	rec.UpdatedAt = patch.UpdatedAt
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = r.now()
	}
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	r.entries[patch.EntryID] = rec
	return nil
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx, "delete", id); err != nil {
		return err
	}
	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("entry %s: %w", id, secondary.ErrNotFound)
	}
	delete(r.entries, id)
	return nil
}

// List retrieves entries matching the given filters, ordered like the SQL
// repositories order them.
func (r *EntryRepository) List(ctx context.Context, filters secondary.EntryFilters) ([]*secondary.EntryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(ctx, "list", ""); err != nil {
		return nil, err
	}

	key, err := sortKey(filters.OrderBy)
	if err != nil {
		return nil, err
	}

	var out []*secondary.EntryRecord
	for _, rec := range r.entries {
		if filters.Shipped != nil && rec.Shipped != *filters.Shipped {
			continue
		}
		c := cloneRecord(rec)
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ka, kb := key(a), key(b)
		if ka != kb {
			if filters.Descending {
				return ka > kb
			}
			return ka < kb
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			if filters.Descending {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
		return a.ID < b.ID
	})

	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func sortKey(orderBy string) (func(*secondary.EntryRecord) float64, error) {
	switch orderBy {
	case "", secondary.OrderEffective:
		return func(r *secondary.EntryRecord) float64 {
			if r.ManualOverride && r.OverrideScore != nil {
				return float64(*r.OverrideScore)
			}
			return r.PriorityScore
		}, nil
	case secondary.OrderOverride:
		return func(r *secondary.EntryRecord) float64 {
			if r.OverrideScore != nil {
				return float64(*r.OverrideScore)
			}
			return r.PriorityScore
		}, nil
	case secondary.OrderPriority:
		return func(r *secondary.EntryRecord) float64 { return r.PriorityScore }, nil
	case secondary.OrderUpdated:
		return func(r *secondary.EntryRecord) float64 { return float64(r.UpdatedAt.UnixNano()) }, nil
	default:
		return nil, fmt.Errorf("unknown entry ordering %q", orderBy)
	}
}

func cloneRecord(r secondary.EntryRecord) secondary.EntryRecord {
	if r.OverrideScore != nil {
		v := *r.OverrideScore
		r.OverrideScore = &v
	}
	if r.Answers.RepeatCustomer != nil {
		v := *r.Answers.RepeatCustomer
		r.Answers.RepeatCustomer = &v
	}
	if r.Answers.Extra != nil {
		extra := make(map[string]any, len(r.Answers.Extra))
		for k, v := range r.Answers.Extra {
			extra[k] = v
		}
		r.Answers.Extra = extra
	}
	return r
}

// Ensure EntryRepository implements the interfaces
var (
	_ secondary.EntryRepository = (*EntryRepository)(nil)
	_ secondary.BatchUpdater    = (*EntryRepository)(nil)
)
