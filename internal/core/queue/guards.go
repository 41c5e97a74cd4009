package queue

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Cause   error // sentinel the reason wraps, if any
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Cause != nil {
		return fmt.Errorf("%w: %s", r.Cause, r.Reason)
	}
	return fmt.Errorf("%s", r.Reason)
}

// MutateContext provides context for the in-flight guard.
type MutateContext struct {
	EntryIDs      []string
	InFlight      map[string]bool
	PartitionBusy bool
	Partition     Partition
}

// ToggleContext provides context for ship and unship guards.
type ToggleContext struct {
	EntryID string
	Exists  bool
	Shipped bool
}

// DeleteContext provides context for delete guards.
type DeleteContext struct {
	EntryID string
	Exists  bool
}

// CanMutate evaluates whether a mutation may start.
// Rules:
// - No named entry may have a store request outstanding
// - The partition being reordered, if any, must be idle
func CanMutate(ctx MutateContext) GuardResult {
	if ctx.PartitionBusy {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s partition is being reordered", ctx.Partition),
			Cause:   ErrEntryBusy,
		}
	}
	for _, id := range ctx.EntryIDs {
		if ctx.InFlight[id] {
			return GuardResult{
				Allowed: false,
				Reason:  fmt.Sprintf("entry %s is still being saved", id),
				Cause:   ErrEntryBusy,
			}
		}
	}
	return GuardResult{Allowed: true}
}

// CanShip evaluates whether an entry can be marked shipped.
// Rules:
// - Entry must exist
// - Entry must be active
func CanShip(ctx ToggleContext) GuardResult {
	if !ctx.Exists {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("entry %s not in queue", ctx.EntryID), Cause: ErrNotFound}
	}
	if ctx.Shipped {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("entry %s is already shipped", ctx.EntryID), Cause: ErrNotFound}
	}
	return GuardResult{Allowed: true}
}

// CanUnship evaluates whether an entry can be moved back to active.
// Rules:
// - Entry must exist
// - Entry must be shipped
func CanUnship(ctx ToggleContext) GuardResult {
	if !ctx.Exists {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("entry %s not in queue", ctx.EntryID), Cause: ErrNotFound}
	}
	if !ctx.Shipped {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("entry %s is not shipped", ctx.EntryID), Cause: ErrNotFound}
	}
	return GuardResult{Allowed: true}
}

// CanDelete evaluates whether an entry can be deleted.
// Rules:
// - Entry must exist
func CanDelete(ctx DeleteContext) GuardResult {
	if !ctx.Exists {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("entry %s not in queue", ctx.EntryID), Cause: ErrNotFound}
	}
	return GuardResult{Allowed: true}
}
