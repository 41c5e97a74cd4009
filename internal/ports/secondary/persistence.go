// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"

	"github.com/example/triage/internal/core/intake"
)

// ErrNotFound is returned (wrapped) by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrScoringUnavailable is returned (wrapped) by scorers that could not
// produce a score.
var ErrScoringUnavailable = errors.New("scoring service unavailable")

// EntryRepository defines the secondary port for queue entry persistence.
type EntryRepository interface {
	// Insert persists a new entry. An empty ID is filled with a fresh UUID, and
	// zero timestamps are set to the current time. New rows are unshipped and
	// carry no override.
	Insert(ctx context.Context, entry *EntryRecord) error

	// GetByID retrieves an entry by its ID.
	GetByID(ctx context.Context, id string) (*EntryRecord, error)

	// Update applies a field-level patch to one entry.
	Update(ctx context.Context, patch EntryPatch) error

	// Delete removes an entry from persistence.
	Delete(ctx context.Context, id string) error

	// List retrieves entries matching the given filters.
	List(ctx context.Context, filters EntryFilters) ([]*EntryRecord, error)
}

// BatchUpdater is implemented by repositories that can apply several patches
// atomically. Either every patch lands or none does.
type BatchUpdater interface {
	UpdateBatch(ctx context.Context, patches []EntryPatch) error
}

// EntryRecord represents a queue entry as stored in persistence.
type EntryRecord struct {
	ID             string
	Answers        intake.Answers
	PriorityScore  float64
	OverrideScore  *int
	ManualOverride bool
	Shipped        bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EntryPatch names the fields of one entry to change. Nil fields are left
// untouched. A zero UpdatedAt is replaced with the current time.
type EntryPatch struct {
	EntryID        string
	Shipped        *bool
	OverrideScore  *int
	ManualOverride *bool
	UpdatedAt      time.Time
}

// Ordering keys accepted by EntryFilters.OrderBy.
const (
	OrderEffective = "effective"
	OrderOverride  = "override_score"
	OrderPriority  = "priority_score"
	OrderUpdated   = "updated_at"
)

// EntryFilters contains filter options for querying entries.
type EntryFilters struct {
	Shipped    *bool  // nil lists both partitions
	OrderBy    string // one of the Order* keys; empty means effective
	Descending bool
	Limit      int
}

// Scorer defines the secondary port for the priority scoring service.
type Scorer interface {
	// Score returns the priority score for one submission.
	Score(ctx context.Context, answers intake.Answers) (float64, error)
}

// SnapshotSink receives exported queue snapshots.
type SnapshotSink interface {
	// Write stores one snapshot document.
	Write(ctx context.Context, data []byte) error
}
