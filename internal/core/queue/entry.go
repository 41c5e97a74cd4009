// Package queue contains the pure ranking logic for the triage queue.
// Every function takes a Queue value and returns a new one; inputs are
// never modified in place.
package queue

import (
	"errors"
	"sort"
	"time"
)

// Partition names one of the two queue columns.
type Partition string

const (
	PartitionActive  Partition = "active"
	PartitionShipped Partition = "shipped"
)

// Sentinel errors returned by queue operations.
var (
	ErrNotFound        = errors.New("entry not found")
	ErrCrossPartition  = errors.New("entry cannot move between partitions by reordering")
	ErrInvalidPosition = errors.New("position out of range")
	ErrEntryBusy       = errors.New("entry has a pending store request")
)

// Entry is the ranking view of one queue entry.
type Entry struct {
	ID             string
	Name           string
	Email          string
	PriorityScore  float64
	OverrideScore  *int
	ManualOverride bool
	Shipped        bool
	UpdatedAt      time.Time
}

// EffectiveScore is the override score when the entry was placed by hand,
// else the scorer's priority.
func (e Entry) EffectiveScore() float64 {
	if e.ManualOverride && e.OverrideScore != nil {
		return float64(*e.OverrideScore)
	}
	return e.PriorityScore
}

// Partition reports which column the entry belongs to.
func (e Entry) Partition() Partition {
	if e.Shipped {
		return PartitionShipped
	}
	return PartitionActive
}

func (e Entry) clone() Entry {
	if e.OverrideScore != nil {
		v := *e.OverrideScore
		e.OverrideScore = &v
	}
	return e
}

// less orders by effective score DESC, then UpdatedAt DESC, then ID ASC.
func less(a, b Entry) bool {
	as, bs := a.EffectiveScore(), b.EffectiveScore()
	if as != bs {
		return as > bs
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID < b.ID
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i], entries[j])
	})
}

func cloneEntries(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.clone()
	}
	return out
}

func indexOf(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func intPtr(v int) *int {
	return &v
}
