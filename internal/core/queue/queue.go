package queue

import (
	"fmt"
	"time"
)

// Queue is the ranked view of all entries, split into the two partitions.
type Queue struct {
	Active  []Entry
	Shipped []Entry
}

// ReorderRequest asks for an entry to be moved to Position (0-based) within
// its own partition.
type ReorderRequest struct {
	EntryID   string
	Partition Partition
	Position  int
}

// Load partitions entries by their shipped flag and orders each partition.
func Load(entries []Entry) Queue {
	var q Queue
	for _, e := range entries {
		if e.Shipped {
			q.Shipped = append(q.Shipped, e.clone())
		} else {
			q.Active = append(q.Active, e.clone())
		}
	}
	sortEntries(q.Active)
	sortEntries(q.Shipped)
	return q
}

// Clone returns a deep copy of q.
func (q Queue) Clone() Queue {
	return Queue{
		Active:  cloneEntries(q.Active),
		Shipped: cloneEntries(q.Shipped),
	}
}

// Len returns the number of entries across both partitions.
func (q Queue) Len() int {
	return len(q.Active) + len(q.Shipped)
}

// Entries returns the given partition in display order.
func (q Queue) Entries(p Partition) []Entry {
	switch p {
	case PartitionActive:
		return q.Active
	case PartitionShipped:
		return q.Shipped
	default:
		return nil
	}
}

// Find locates an entry by ID in either partition.
func (q Queue) Find(id string) (Entry, Partition, bool) {
	if i := indexOf(q.Active, id); i >= 0 {
		return q.Active[i], PartitionActive, true
	}
	if i := indexOf(q.Shipped, id); i >= 0 {
		return q.Shipped[i], PartitionShipped, true
	}
	return Entry{}, "", false
}

// IDs returns the IDs of the given partition in display order.
func (q Queue) IDs(p Partition) []string {
	list := q.Entries(p)
	ids := make([]string, len(list))
	for i, e := range list {
		ids[i] = e.ID
	}
	return ids
}

// WithPartition returns a copy of q with partition p replaced by entries
// reordered for display. Entries whose shipped flag does not match p are
// dropped.
func WithPartition(q Queue, p Partition, entries []Entry) Queue {
	out := q.Clone()
	var list []Entry
	for _, e := range entries {
		if e.Partition() == p {
			list = append(list, e.clone())
		}
	}
	sortEntries(list)
	switch p {
	case PartitionActive:
		out.Active = list
	case PartitionShipped:
		out.Shipped = list
	}
	return out
}

// Restore returns a copy of q with partition p taken verbatim from snapshot.
func Restore(q Queue, snapshot Queue, p Partition) Queue {
	out := q.Clone()
	switch p {
	case PartitionActive:
		out.Active = cloneEntries(snapshot.Active)
	case PartitionShipped:
		out.Shipped = cloneEntries(snapshot.Shipped)
	}
	return out
}

// Reorder moves an entry within its partition and renumbers the partition so
// that the entry at index i gets override score len-i. Only entries whose
// stored override differs from the new value are listed in the ChangeSet.
func Reorder(q Queue, req ReorderRequest, now time.Time) (Queue, ChangeSet, error) {
	if req.Partition != PartitionActive && req.Partition != PartitionShipped {
		return q, nil, fmt.Errorf("unknown partition %q", req.Partition)
	}

	list := q.Entries(req.Partition)
	from := indexOf(list, req.EntryID)
	if from < 0 {
		if _, _, ok := q.Find(req.EntryID); ok {
			return q, nil, fmt.Errorf("%w: %s is not in %s", ErrCrossPartition, req.EntryID, req.Partition)
		}
		return q, nil, fmt.Errorf("%w: %s", ErrNotFound, req.EntryID)
	}
	if req.Position < 0 || req.Position >= len(list) {
		return q, nil, fmt.Errorf("%w: %d not in [0,%d)", ErrInvalidPosition, req.Position, len(list))
	}

	out := q.Clone()
	if from == req.Position {
		return out, nil, nil
	}

	moved := cloneEntries(list)
	e := moved[from]
	moved = append(moved[:from], moved[from+1:]...)
	moved = append(moved[:req.Position], append([]Entry{e}, moved[req.Position:]...)...)

	var changes ChangeSet
	n := len(moved)
	for i := range moved {
		score := n - i
		if moved[i].ManualOverride && moved[i].OverrideScore != nil && *moved[i].OverrideScore == score {
			continue
		}
		changes = append(changes, ScoreChange{
			EntryID:           moved[i].ID,
			Score:             score,
			PreviousScore:     moved[i].OverrideScore,
			PreviousManual:    moved[i].ManualOverride,
			PreviousUpdatedAt: moved[i].UpdatedAt,
		})
		moved[i].OverrideScore = intPtr(score)
		moved[i].ManualOverride = true
		moved[i].UpdatedAt = now
	}

	switch req.Partition {
	case PartitionActive:
		out.Active = moved
	case PartitionShipped:
		out.Shipped = moved
	}
	return out, changes, nil
}

// Promote moves an active entry to the end of the shipped partition.
func Promote(q Queue, id string, now time.Time) (Queue, error) {
	i := indexOf(q.Active, id)
	if i < 0 {
		return q, fmt.Errorf("%w: %s is not active", ErrNotFound, id)
	}
	out := q.Clone()
	e := out.Active[i]
	out.Active = append(out.Active[:i], out.Active[i+1:]...)
	e.Shipped = true
	e.UpdatedAt = now
	out.Shipped = append(out.Shipped, e)
	return out, nil
}

// Demote moves a shipped entry back into the active partition at the place
// its effective score puts it.
func Demote(q Queue, id string, now time.Time) (Queue, error) {
	i := indexOf(q.Shipped, id)
	if i < 0 {
		return q, fmt.Errorf("%w: %s is not shipped", ErrNotFound, id)
	}
	out := q.Clone()
	e := out.Shipped[i]
	out.Shipped = append(out.Shipped[:i], out.Shipped[i+1:]...)
	e.Shipped = false
	e.UpdatedAt = now

	at := len(out.Active)
	for j, other := range out.Active {
		if less(e, other) {
			at = j
			break
		}
	}
	out.Active = append(out.Active[:at], append([]Entry{e}, out.Active[at:]...)...)
	return out, nil
}

// Remove deletes an entry from whichever partition holds it.
func Remove(q Queue, id string) (Queue, error) {
	out := q.Clone()
	if i := indexOf(out.Active, id); i >= 0 {
		out.Active = append(out.Active[:i], out.Active[i+1:]...)
		return out, nil
	}
	if i := indexOf(out.Shipped, id); i >= 0 {
		out.Shipped = append(out.Shipped[:i], out.Shipped[i+1:]...)
		return out, nil
	}
	return q, fmt.Errorf("%w: %s", ErrNotFound, id)
}
