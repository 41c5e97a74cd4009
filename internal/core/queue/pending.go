package queue

import "fmt"

// ActionKind names a mutation that needs confirmation before it runs.
type ActionKind string

const (
	ActionShip   ActionKind = "ship"
	ActionUnship ActionKind = "unship"
	ActionDelete ActionKind = "delete"
)

// PendingAction is a requested mutation awaiting an explicit confirm or
// cancel. It carries everything needed to render the confirmation prompt.
type PendingAction struct {
	ID        string
	Kind      ActionKind
	EntryID   string
	EntryName string
	Prompt    string
}

// NewShipToggle builds the pending action that flips e's shipped flag.
func NewShipToggle(actionID string, e Entry) PendingAction {
	kind, verb := ActionShip, "Mark %s as shipped?"
	if e.Shipped {
		kind, verb = ActionUnship, "Move %s back to the active queue?"
	}
	return PendingAction{
		ID:        actionID,
		Kind:      kind,
		EntryID:   e.ID,
		EntryName: e.Name,
		Prompt:    fmt.Sprintf(verb, displayName(e)),
	}
}

// NewDelete builds the pending action that removes e.
func NewDelete(actionID string, e Entry) PendingAction {
	return PendingAction{
		ID:        actionID,
		Kind:      ActionDelete,
		EntryID:   e.ID,
		EntryName: e.Name,
		Prompt:    fmt.Sprintf("Are you sure you want to delete %s from the priority list?", displayName(e)),
	}
}

func displayName(e Entry) string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}
