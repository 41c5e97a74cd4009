// Package primary defines the primary ports (driving adapters) for the application.
package primary

import (
	"context"
	"time"
)

// QueueService defines the primary port for one staff session over the queue.
// Reorders are applied locally first and reconciled with the store; ship,
// unship and delete require an explicit confirmation through Resolve.
type QueueService interface {
	// Load fetches both partitions from the store and replaces the session view.
	Load(ctx context.Context) (*QueueView, error)

	// Snapshot returns the current session view without a store call.
	Snapshot() *QueueView

	// Reorder moves an entry to a new position within its partition.
	Reorder(ctx context.Context, req ReorderRequest) (*ReorderResponse, error)

	// RequestShipToggle stages a ship or unship for confirmation.
	RequestShipToggle(ctx context.Context, entryID string) (*PendingAction, error)

	// RequestDelete stages a delete for confirmation.
	RequestDelete(ctx context.Context, entryID string) (*PendingAction, error)

	// Resolve confirms or cancels a staged action.
	Resolve(ctx context.Context, req ResolveRequest) (*ResolveResponse, error)
}

// Entry is a queue entry at the port boundary.
type Entry struct {
	ID             string
	Name           string
	Email          string
	PriorityScore  float64
	OverrideScore  *int
	ManualOverride bool
	EffectiveScore float64
	Shipped        bool
	UpdatedAt      time.Time
}

// QueueView is the ranked session view, each partition in display order.
type QueueView struct {
	Active  []*Entry
	Shipped []*Entry
}

// ReorderRequest contains parameters for a reorder.
type ReorderRequest struct {
	EntryID   string
	Partition string // "active" or "shipped"
	Position  int    // 0-based target index
}

// ReorderResponse contains the result of a persisted reorder.
type ReorderResponse struct {
	Changed []string // entry IDs whose override score was written
	Queue   *QueueView
}

// PendingAction is a staged mutation awaiting confirmation.
type PendingAction struct {
	ID        string
	Kind      string // "ship", "unship", "delete"
	EntryID   string
	EntryName string
	Prompt    string
}

// ResolveRequest confirms or cancels a staged action.
type ResolveRequest struct {
	ActionID  string
	Confirmed bool
}

// ResolveResponse contains the result of resolving a staged action.
type ResolveResponse struct {
	Applied bool // false when the action was cancelled
	Action  PendingAction
	Queue   *QueueView
}
