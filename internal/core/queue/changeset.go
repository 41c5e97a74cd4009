package queue

import "time"

// ScoreChange is one override score that a reorder needs persisted. The
// Previous fields hold the entry's state before the reorder.
type ScoreChange struct {
	EntryID           string
	Score             int
	PreviousScore     *int
	PreviousManual    bool
	PreviousUpdatedAt time.Time
}

// ChangeSet lists the score changes produced by one reorder, in the
// partition's new display order.
type ChangeSet []ScoreChange

// IDs returns the entry IDs touched by the change set.
func (cs ChangeSet) IDs() []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.EntryID
	}
	return ids
}

// Scores maps each touched entry to its new override score.
func (cs ChangeSet) Scores() map[string]int {
	out := make(map[string]int, len(cs))
	for _, c := range cs {
		out[c.EntryID] = c.Score
	}
	return out
}
